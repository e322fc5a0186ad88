package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain/lifecycle"
)

// TaskStatus is the column a task sits in.
type TaskStatus string

// Task statuses. Archived is terminal.
const (
	TaskStatusToDo       TaskStatus = "to_do"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusArchived   TaskStatus = "archived"
)

// TaskPriority ranks tasks within a user's list.
type TaskPriority string

// Task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// MaxTaskTitleLength is the longest title accepted, in runes.
const MaxTaskTitleLength = 255

// Validation errors for Task.
var (
	ErrEmptyTaskTitle     = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrTaskTitleTooLong   = fmt.Errorf("%w: task title is too long", ErrValidation)
	ErrInvalidTaskStatus  = fmt.Errorf("%w: invalid task status", ErrValidation)
	ErrInvalidPriority    = fmt.Errorf("%w: invalid task priority", ErrValidation)
	ErrEmptyTaskProjectID = fmt.Errorf("%w: task project ID cannot be empty", ErrValidation)
	ErrEmptyTaskCreatorID = fmt.Errorf("%w: task creator ID cannot be empty", ErrValidation)
)

// TaskLifecycle is the status machine for tasks. to_do, in_progress and done
// move freely between each other; any of them may be archived; archived is
// absorbing. Reapplying the current status is a no-op.
var TaskLifecycle = lifecycle.New("task", map[TaskStatus][]TaskStatus{
	TaskStatusToDo:       {TaskStatusInProgress, TaskStatusDone, TaskStatusArchived},
	TaskStatusInProgress: {TaskStatusToDo, TaskStatusDone, TaskStatusArchived},
	TaskStatusDone:       {TaskStatusToDo, TaskStatusInProgress, TaskStatusArchived},
	TaskStatusArchived:   {},
}, lifecycle.WithIdempotentSelf[TaskStatus]())

// Task is a unit of work inside a project.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	ProjectID   uuid.UUID    `json:"project_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	AssigneeID  *uuid.UUID   `json:"assignee_id,omitempty"`
	Ordinal     int          `json:"ordinal"`
	CreatedByID uuid.UUID    `json:"created_by_id"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `json:"-"`
}

// NewTaskParams holds the caller-supplied fields for a new task.
type NewTaskParams struct {
	ProjectID   uuid.UUID
	Title       string
	Description *string
	Priority    TaskPriority
	Status      TaskStatus
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
	CreatedByID uuid.UUID
}

// NewTask builds a validated Task. Priority defaults to medium and status to
// to_do. The ordinal is assigned by the caller once the column is known.
func NewTask(p NewTaskParams, now time.Time) (*Task, error) {
	if p.Priority == "" {
		p.Priority = TaskPriorityMedium
	}
	if p.Status == "" {
		p.Status = TaskStatusToDo
	}

	now = now.UTC()
	task := &Task{
		ID:          uuid.New(),
		ProjectID:   p.ProjectID,
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Priority:    p.Priority,
		Status:      p.Status,
		AssigneeID:  p.AssigneeID,
		CreatedByID: p.CreatedByID,
		DueDate:     utcPtr(p.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the task's invariants that do not depend on storage.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrInvalidID
	}
	if t.ProjectID == uuid.Nil {
		return ErrEmptyTaskProjectID
	}
	if t.CreatedByID == uuid.Nil {
		return ErrEmptyTaskCreatorID
	}
	if err := ValidateTaskTitle(t.Title); err != nil {
		return err
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	return nil
}

// ValidateTaskTitle checks a title for emptiness and length.
func ValidateTaskTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTaskTitle
	}
	if utf8.RuneCountInString(title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}
	return nil
}

// IsDeleted reports whether the task has been soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// IsOpen reports whether the task still counts toward deadlines.
func (t *Task) IsOpen() bool {
	return t.Status != TaskStatusDone && t.Status != TaskStatusArchived
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return TaskLifecycle.Known(s)
}

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities from low (1) to high (3). Unknown values rank 0.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityLow:
		return 1
	case TaskPriorityMedium:
		return 2
	case TaskPriorityHigh:
		return 3
	default:
		return 0
	}
}

// TaskUpdate is a partial update of a task's editable fields.
// Title and priority cannot be cleared.
type TaskUpdate struct {
	Title       Optional[string]       `json:"title"`
	Description Optional[string]       `json:"description"`
	Priority    Optional[TaskPriority] `json:"priority"`
	DueDate     Optional[time.Time]    `json:"due_date"`
}

// Empty reports whether no field was supplied.
func (u TaskUpdate) Empty() bool {
	return !u.Title.Present() && !u.Description.Present() &&
		!u.Priority.Present() && !u.DueDate.Present()
}

// Validate checks the supplied fields.
func (u TaskUpdate) Validate() error {
	if u.Title.IsNull() {
		return NewValidationError("title", "cannot be cleared", ErrEmptyTaskTitle)
	}
	if title, ok := u.Title.Get(); ok {
		if err := ValidateTaskTitle(title); err != nil {
			return err
		}
	}
	if u.Priority.IsNull() {
		return NewValidationError("priority", "cannot be cleared", ErrInvalidPriority)
	}
	if p, ok := u.Priority.Get(); ok && !p.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// FieldChange records one field that an update actually changed.
type FieldChange struct {
	Field    string
	OldValue *string
	NewValue *string
}

// Apply writes the supplied fields onto t and returns one FieldChange per
// field whose value differs. Unchanged fields produce no entry.
func (u TaskUpdate) Apply(t *Task) []FieldChange {
	var changes []FieldChange

	if title, ok := u.Title.Get(); ok {
		title = strings.TrimSpace(title)
		if title != t.Title {
			oldTitle := t.Title
			changes = append(changes, FieldChange{Field: "title", OldValue: &oldTitle, NewValue: &title})
			t.Title = title
		}
	}

	if u.Description.Present() {
		next := u.Description.Ptr()
		if !equalStringPtr(t.Description, next) {
			changes = append(changes, FieldChange{Field: "description", OldValue: t.Description, NewValue: next})
			t.Description = next
		}
	}

	if p, ok := u.Priority.Get(); ok && p != t.Priority {
		oldValue, newValue := string(t.Priority), string(p)
		changes = append(changes, FieldChange{Field: "priority", OldValue: &oldValue, NewValue: &newValue})
		t.Priority = p
	}

	if u.DueDate.Present() {
		next := utcPtr(u.DueDate.Ptr())
		if !equalTimePtr(t.DueDate, next) {
			changes = append(changes, FieldChange{
				Field:    "due_date",
				OldValue: formatTimePtr(t.DueDate),
				NewValue: formatTimePtr(next),
			})
			t.DueDate = next
		}
	}

	return changes
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
