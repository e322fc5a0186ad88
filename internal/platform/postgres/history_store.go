package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// PostgresTaskHistoryStore implements store.TaskHistoryStore. Rows are
// insert-only.
type PostgresTaskHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskHistoryStore creates a new PostgresTaskHistoryStore.
func NewPostgresTaskHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresTaskHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_history_store")),
	}
}

// Ensure PostgresTaskHistoryStore implements store.TaskHistoryStore interface
var _ store.TaskHistoryStore = (*PostgresTaskHistoryStore)(nil)

// Append implements store.TaskHistoryStore.Append.
func (s *PostgresTaskHistoryStore) Append(ctx context.Context, entry *domain.TaskHistoryEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("history entry validation failed",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID.String()))
		return err
	}

	query := `
		INSERT INTO task_history (id, task_id, actor_id, change_type, field_name, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.TaskID,
		entry.ActorID,
		entry.ChangeType,
		entry.FieldName,
		entry.OldValue,
		entry.NewValue,
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append task history",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID.String()),
			slog.String("change_type", string(entry.ChangeType)))
		return mapWriteError(err, "task_history", "append")
	}
	return nil
}

// ListByTask implements store.TaskHistoryStore.ListByTask. Insertion order
// breaks timestamp ties.
func (s *PostgresTaskHistoryStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskHistoryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_id, actor_id, change_type, field_name, old_value, new_value, created_at
		FROM task_history
		WHERE task_id = $1
		ORDER BY created_at, seq
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to list task history",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := make([]*domain.TaskHistoryEntry, 0)
	for rows.Next() {
		var (
			e          domain.TaskHistoryEntry
			changeType string
			field      sql.NullString
			oldValue   sql.NullString
			newValue   sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.TaskID, &e.ActorID, &changeType, &field, &oldValue, &newValue, &e.CreatedAt); err != nil {
			log.Error("failed to scan history row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		e.ChangeType = domain.ChangeType(changeType)
		e.FieldName = nullStringPtr(field)
		e.OldValue = nullStringPtr(oldValue)
		e.NewValue = nullStringPtr(newValue)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating history rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return entries, nil
}
