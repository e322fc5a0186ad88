package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChangeType classifies a task history entry.
type ChangeType string

// History change types.
const (
	ChangeStatus     ChangeType = "status_change"
	ChangeAssignment ChangeType = "assignment_change"
	ChangeField      ChangeType = "field_update"
	ChangeCreated    ChangeType = "created"
	ChangeDeleted    ChangeType = "deleted"
)

// ErrInvalidChangeType is returned for an unknown change type.
var ErrInvalidChangeType = fmt.Errorf("%w: invalid history change type", ErrValidation)

// TaskHistoryEntry is one immutable audit record of a task mutation.
type TaskHistoryEntry struct {
	ID         uuid.UUID  `json:"id"`
	TaskID     uuid.UUID  `json:"task_id"`
	ActorID    uuid.UUID  `json:"actor_id"`
	ChangeType ChangeType `json:"change_type"`
	FieldName  *string    `json:"field_name,omitempty"`
	OldValue   *string    `json:"old_value,omitempty"`
	NewValue   *string    `json:"new_value,omitempty"`
	CreatedAt  time.Time  `json:"timestamp"`
}

// NewHistoryEntry builds an entry stamped at now.
func NewHistoryEntry(
	taskID, actorID uuid.UUID,
	changeType ChangeType,
	oldValue, newValue *string,
	now time.Time,
) *TaskHistoryEntry {
	return &TaskHistoryEntry{
		ID:         uuid.New(),
		TaskID:     taskID,
		ActorID:    actorID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  now.UTC(),
	}
}

// NewFieldHistoryEntry builds a field_update entry from a FieldChange.
func NewFieldHistoryEntry(taskID, actorID uuid.UUID, c FieldChange, now time.Time) *TaskHistoryEntry {
	e := NewHistoryEntry(taskID, actorID, ChangeField, c.OldValue, c.NewValue, now)
	field := c.Field
	e.FieldName = &field
	return e
}

// Validate checks the entry's required fields.
func (e *TaskHistoryEntry) Validate() error {
	if e.ID == uuid.Nil || e.TaskID == uuid.Nil || e.ActorID == uuid.Nil {
		return ErrInvalidID
	}
	switch e.ChangeType {
	case ChangeStatus, ChangeAssignment, ChangeCreated, ChangeDeleted:
		return nil
	case ChangeField:
		if e.FieldName == nil || *e.FieldName == "" {
			return NewValidationError("field_name", "required for field updates", nil)
		}
		return nil
	default:
		return ErrInvalidChangeType
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// UUIDString formats an optional UUID as an optional string.
func UUIDString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
