package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

const taskColumns = `id, project_id, title, description, priority, status, assignee_id,
	ordinal, created_by_id, due_date, created_at, updated_at, deleted_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		desc     sql.NullString
		priority string
		status   string
		assignee uuid.NullUUID
		due      sql.NullTime
		deleted  sql.NullTime
	)
	if err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&desc,
		&priority,
		&status,
		&assignee,
		&task.Ordinal,
		&task.CreatedByID,
		&due,
		&task.CreatedAt,
		&task.UpdatedAt,
		&deleted,
	); err != nil {
		return nil, err
	}

	task.Priority = domain.TaskPriority(priority)
	task.Status = domain.TaskStatus(status)
	task.Description = nullStringPtr(desc)
	task.AssigneeID = nullUUIDPtr(assignee)
	task.DueDate = nullTimePtr(due)
	task.DeletedAt = nullTimePtr(deleted)
	return &task, nil
}

// Create implements store.TaskStore.Create.
// Returns store.ErrDuplicate when the ordinal is already taken in the column
// and store.ErrInvalidEntity when the project does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, project_id, title, description, priority, status, assignee_id,
			ordinal, created_by_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.ProjectID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.AssigneeID,
		task.Ordinal,
		task.CreatedByID,
		task.DueDate,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("project_id", task.ProjectID.String()))
		return mapWriteError(err, "task", "create")
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", task.ProjectID.String()),
		slog.Int("ordinal", task.Ordinal))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
// Returns store.ErrTaskNotFound for missing and soft-deleted tasks.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND deleted_at IS NULL`
	return s.getOne(ctx, query, id)
}

// GetForUpdate implements store.TaskStore.GetForUpdate. Inside a
// transaction the row stays locked until commit.
func (s *PostgresTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return s.getOne(ctx, query, id)
}

func (s *PostgresTaskStore) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// Update implements store.TaskStore.Update. It writes every mutable column.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, status = $5, assignee_id = $6,
			ordinal = $7, due_date = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.AssigneeID,
		task.Ordinal,
		task.DueDate,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return mapWriteError(err, "task", "update")
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// SoftDelete implements store.TaskStore.SoftDelete.
func (s *PostgresTaskStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE tasks SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		log.Error("failed to soft delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// NextOrdinal implements store.TaskStore.NextOrdinal. Within a transaction an
// advisory lock on the column serialises concurrent inserts until commit.
func (s *PostgresTaskStore) NextOrdinal(ctx context.Context, projectID uuid.UUID, status domain.TaskStatus) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	lockQuery := `SELECT pg_advisory_xact_lock(hashtext($1::text || '/' || $2::text))`
	if _, err := s.db.ExecContext(ctx, lockQuery, projectID, status); err != nil {
		log.Error("failed to lock task column",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return 0, MapError(err)
	}

	query := `SELECT COALESCE(MAX(ordinal), -1) + 1 FROM tasks WHERE project_id = $1 AND status = $2`
	var next int
	if err := s.db.QueryRowContext(ctx, query, projectID, status).Scan(&next); err != nil {
		log.Error("failed to compute next ordinal",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()),
			slog.String("status", string(status)))
		return 0, MapError(err)
	}
	return next, nil
}

// UpdateOrdinal implements store.TaskStore.UpdateOrdinal.
func (s *PostgresTaskStore) UpdateOrdinal(ctx context.Context, id uuid.UUID, ordinal int, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE tasks SET ordinal = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, id, ordinal, at.UTC())
	if err != nil {
		log.Error("failed to update task ordinal",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.Int("ordinal", ordinal))
		return mapWriteError(err, "task", "reorder")
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// ListByProject implements store.TaskStore.ListByProject.
func (s *PostgresTaskStore) ListByProject(
	ctx context.Context,
	projectID uuid.UUID,
	status *domain.TaskStatus,
) ([]*domain.Task, error) {
	var statusArg any
	if status != nil {
		statusArg = string(*status)
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE project_id = $1 AND deleted_at IS NULL AND ($2::text IS NULL OR status = $2::text)
		ORDER BY status, ordinal
	`
	return s.list(ctx, "list tasks by project", query, projectID, statusArg)
}

// ListByAssignee implements store.TaskStore.ListByAssignee.
func (s *PostgresTaskStore) ListByAssignee(
	ctx context.Context,
	userID uuid.UUID,
	includeCompleted bool,
) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE assignee_id = $1 AND deleted_at IS NULL
			AND ($2::boolean OR status NOT IN ('done', 'archived'))
		ORDER BY due_date ASC NULLS LAST,
			CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC,
			created_at ASC
	`
	return s.list(ctx, "list tasks by assignee", query, userID, includeCompleted)
}

// ListOpenDueBetween implements store.TaskStore.ListOpenDueBetween.
func (s *PostgresTaskStore) ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE deleted_at IS NULL AND status NOT IN ('done', 'archived')
			AND due_date >= $1 AND due_date < $2
		ORDER BY due_date
	`
	return s.list(ctx, "list tasks due in window", query, from.UTC(), to.UTC())
}

// ListOpenDueBefore implements store.TaskStore.ListOpenDueBefore.
func (s *PostgresTaskStore) ListOpenDueBefore(ctx context.Context, before time.Time) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE deleted_at IS NULL AND status NOT IN ('done', 'archived') AND due_date < $1
		ORDER BY due_date
	`
	return s.list(ctx, "list overdue tasks", query, before.UTC())
}

func (s *PostgresTaskStore) list(ctx context.Context, op, query string, args ...any) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug(op, slog.Int("count", len(tasks)))
	return tasks, nil
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullUUIDPtr(v uuid.NullUUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := v.UUID
	return &id
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
