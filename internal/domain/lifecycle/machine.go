// Package lifecycle provides a small generic state machine for entities whose
// status moves through a fixed transition table and ends in terminal states.
//
// The same Machine type backs both task statuses and invite responses, so the
// terminal-state rules are defined once.
package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when the transition table has no edge
	// between the two states.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrTerminalState is returned when the current state has no outgoing edges.
	// It wraps ErrInvalidTransition so callers can treat both the same way.
	ErrTerminalState = fmt.Errorf("%w: state is terminal", ErrInvalidTransition)

	// ErrUnknownState is returned when either state is not part of the table.
	ErrUnknownState = fmt.Errorf("%w: unknown state", ErrInvalidTransition)
)

// Machine validates transitions over the state type S.
// A Machine is immutable after construction and safe for concurrent use.
type Machine[S comparable] struct {
	name           string
	edges          map[S]map[S]struct{}
	idempotentSelf bool
}

// Option configures a Machine.
type Option[S comparable] func(*Machine[S])

// WithIdempotentSelf makes a transition to the current state a successful
// no-op, even when the current state is terminal.
func WithIdempotentSelf[S comparable]() Option[S] {
	return func(m *Machine[S]) {
		m.idempotentSelf = true
	}
}

// New builds a Machine from an adjacency table. Every state must appear as a
// key; states mapped to an empty slice are terminal.
func New[S comparable](name string, table map[S][]S, opts ...Option[S]) *Machine[S] {
	m := &Machine[S]{
		name:  name,
		edges: make(map[S]map[S]struct{}, len(table)),
	}
	for from, targets := range table {
		set := make(map[S]struct{}, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
		}
		m.edges[from] = set
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the machine's name, used in error messages.
func (m *Machine[S]) Name() string {
	return m.name
}

// Known reports whether s is part of the transition table.
func (m *Machine[S]) Known(s S) bool {
	_, ok := m.edges[s]
	return ok
}

// IsTerminal reports whether s is a known state with no outgoing edges.
func (m *Machine[S]) IsTerminal(s S) bool {
	targets, ok := m.edges[s]
	return ok && len(targets) == 0
}

// CanTransition reports whether the table permits moving from one state to another.
func (m *Machine[S]) CanTransition(from, to S) bool {
	_, ok := m.edges[from][to]
	return ok
}

// Transition checks a move from one state to another.
//
// It returns changed=false with a nil error for a self-transition when the
// machine was built WithIdempotentSelf. Callers persist nothing in that case.
func (m *Machine[S]) Transition(from, to S) (changed bool, err error) {
	if !m.Known(from) || !m.Known(to) {
		return false, fmt.Errorf("%w: %s %v -> %v", ErrUnknownState, m.name, from, to)
	}

	if from == to && m.idempotentSelf {
		return false, nil
	}

	if m.IsTerminal(from) {
		return false, fmt.Errorf("%w: %s is %v", ErrTerminalState, m.name, from)
	}

	if !m.CanTransition(from, to) {
		return false, fmt.Errorf("%w: %s %v -> %v", ErrInvalidTransition, m.name, from, to)
	}

	return true, nil
}
