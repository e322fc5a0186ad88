package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
)

// TaskStore defines persistence for tasks. Soft-deleted tasks are invisible
// to every read.
type TaskStore interface {
	// Create inserts a new task. The ordinal must already be assigned.
	// Returns ErrInvalidEntity when the project does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a live task.
	// Returns ErrTaskNotFound if the task does not exist or was deleted.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetForUpdate retrieves a live task and locks it until the surrounding
	// transaction ends. Outside a transaction it behaves like GetByID.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update persists every mutable field of task, including UpdatedAt.
	// Returns ErrTaskNotFound if no live task matched.
	Update(ctx context.Context, task *domain.Task) error

	// SoftDelete stamps the task's deletion time.
	// Returns ErrTaskNotFound if no live task matched.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error

	// NextOrdinal returns one past the highest ordinal in the project's
	// status column, counting deleted rows, or 0 for an empty column.
	// Inside a transaction it serialises concurrent callers per project.
	NextOrdinal(ctx context.Context, projectID uuid.UUID, status domain.TaskStatus) (int, error)

	// UpdateOrdinal moves a live task to a new position in its column.
	UpdateOrdinal(ctx context.Context, id uuid.UUID, ordinal int, at time.Time) error

	// ListByProject returns the project's live tasks ordered by status then
	// ordinal, optionally restricted to one status.
	ListByProject(ctx context.Context, projectID uuid.UUID, status *domain.TaskStatus) ([]*domain.Task, error)

	// ListByAssignee returns tasks assigned to userID ordered by due date
	// (undated last) then priority high to low. Done and archived tasks are
	// included only when includeCompleted is set.
	ListByAssignee(ctx context.Context, userID uuid.UUID, includeCompleted bool) ([]*domain.Task, error)

	// ListOpenDueBetween returns live tasks that are neither done nor
	// archived with from <= due_date < to.
	ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error)

	// ListOpenDueBefore returns live tasks that are neither done nor archived
	// with due_date < before.
	ListOpenDueBefore(ctx context.Context, before time.Time) ([]*domain.Task, error)
}

// TaskHistoryStore is the append-only audit log of task mutations.
type TaskHistoryStore interface {
	// Append records one entry. Entries are never updated or removed.
	Append(ctx context.Context, entry *domain.TaskHistoryEntry) error

	// ListByTask returns the task's entries oldest first. It returns an
	// empty slice, not an error, for a task without entries.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskHistoryEntry, error)
}
