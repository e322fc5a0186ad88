// Package memory implements the store interfaces in process memory.
//
// A single mutex guards all state. WithinTx holds it for the whole unit of
// work and restores a snapshot when the work fails, which gives the same
// all-or-nothing and claim-once guarantees as the Postgres backend.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

type state struct {
	tasks         map[uuid.UUID]domain.Task
	history       []domain.TaskHistoryEntry
	projects      map[uuid.UUID]domain.Project
	professors    map[uuid.UUID]uuid.UUID // course id -> professor id
	invites       map[uuid.UUID]domain.Invite
	notifications map[uuid.UUID]domain.Notification
	ledger        map[domain.LedgerKey]struct{}
}

func newState() *state {
	return &state{
		tasks:         make(map[uuid.UUID]domain.Task),
		projects:      make(map[uuid.UUID]domain.Project),
		professors:    make(map[uuid.UUID]uuid.UUID),
		invites:       make(map[uuid.UUID]domain.Invite),
		notifications: make(map[uuid.UUID]domain.Notification),
		ledger:        make(map[domain.LedgerKey]struct{}),
	}
}

// clone copies the maps and slices. Entity values are copied by value; the
// pointer fields inside them are replaced, never mutated, by the stores.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	c.history = append(c.history, s.history...)
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.professors {
		c.professors[k] = v
	}
	for k, v := range s.invites {
		c.invites[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k := range s.ledger {
		c.ledger[k] = struct{}{}
	}
	return c
}

// DB is an in-memory database shared by all stores it hands out.
type DB struct {
	mu     sync.Mutex
	st     *state
	logger *slog.Logger
}

// NewDB creates an empty in-memory database.
func NewDB(logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{
		st:     newState(),
		logger: logger.With(slog.String("component", "memory_store")),
	}
}

// Ensure DB implements store.TxManager interface
var _ store.TxManager = (*DB)(nil)

// conn is the handle every store method goes through. Outside a
// transaction it takes the lock per call; inside, the lock is already held.
type conn struct {
	db   *DB
	inTx bool
}

func (c conn) do(fn func(st *state) error) error {
	if !c.inTx {
		c.db.mu.Lock()
		defer c.db.mu.Unlock()
	}
	return fn(c.db.st)
}

func (db *DB) stores(c conn) store.Stores {
	return store.Stores{
		Tasks:         &taskStore{c},
		History:       &historyStore{c},
		Projects:      &projectStore{c},
		Invites:       &inviteStore{c},
		Notifications: &notificationStore{c},
		Ledger:        &ledgerStore{c},
	}
}

// Stores implements store.TxManager.
func (db *DB) Stores() store.Stores {
	return db.stores(conn{db: db})
}

// WithinTx implements store.TxManager. Units of work are fully serialised.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) (err error) {
	log := logger.FromContextOrDefault(ctx, db.logger)

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.st.clone()
	defer func() {
		if p := recover(); p != nil {
			db.st = snapshot
			log.Error("rolled back transaction after panic", slog.Any("panic", p))
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
		if err != nil {
			db.st = snapshot
			log.Debug("rolled back transaction due to error", slog.String("error", err.Error()))
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, db.stores(conn{db: db, inTx: true}))
}

// AddCourse registers the professor of a course so project reads can
// resolve ProfessorID. Course management lives outside this service.
func (db *DB) AddCourse(courseID, professorID uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.st.professors[courseID] = professorID
}
