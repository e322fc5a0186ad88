package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

const notificationColumns = `id, recipient_id, type, title, message, project_id, task_id, actor_id,
	metadata, is_read, created_at, read_at`

// PostgresNotificationStore implements the store.NotificationStore interface.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgresNotificationStore.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var (
		n        domain.Notification
		typ      string
		project  uuid.NullUUID
		task     uuid.NullUUID
		actor    uuid.NullUUID
		metadata []byte
		readAt   sql.NullTime
	)
	if err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&typ,
		&n.Title,
		&n.Message,
		&project,
		&task,
		&actor,
		&metadata,
		&n.IsRead,
		&n.CreatedAt,
		&readAt,
	); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(typ)
	n.ProjectID = nullUUIDPtr(project)
	n.TaskID = nullUUIDPtr(task)
	n.ActorID = nullUUIDPtr(actor)
	if len(metadata) > 0 {
		n.Metadata = json.RawMessage(metadata)
	}
	n.ReadAt = nullTimePtr(readAt)
	return &n, nil
}

// Create implements store.NotificationStore.Create.
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()))
		return err
	}

	var metadata any
	if len(n.Metadata) > 0 {
		metadata = string(n.Metadata)
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Message,
		n.ProjectID,
		n.TaskID,
		n.ActorID,
		metadata,
		n.IsRead,
		n.CreatedAt,
		n.ReadAt,
	)
	if err != nil {
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()),
			slog.String("type", string(n.Type)))
		return mapWriteError(err, "notification", "create")
	}

	log.Debug("notification created",
		slog.String("notification_id", n.ID.String()),
		slog.String("recipient_id", n.RecipientID.String()),
		slog.String("type", string(n.Type)))
	return nil
}

// GetByID implements store.NotificationStore.GetByID.
func (s *PostgresNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotificationNotFound
		}
		log.Error("failed to get notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return nil, MapError(err)
	}
	return n, nil
}

// ListByRecipient implements store.NotificationStore.ListByRecipient.
// A limit of zero or less returns every row.
func (s *PostgresNotificationStore) ListByRecipient(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit int,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND (NOT $2::boolean OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, unreadOnly, limitArg)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("recipient_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	out := make([]*domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			log.Error("failed to scan notification row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// CountUnread implements store.NotificationStore.CountUnread.
func (s *PostgresNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`
	var count int
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count unread notifications",
			slog.String("error", err.Error()),
			slog.String("recipient_id", userID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

// MarkRead implements store.NotificationStore.MarkRead. Marking a read
// notification again keeps the original read_at.
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $2) WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		log.Error("failed to mark notification read",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

// MarkAllRead implements store.NotificationStore.MarkAllRead.
func (s *PostgresNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	query := `UPDATE notifications SET is_read = TRUE, read_at = $2 WHERE recipient_id = $1 AND is_read = FALSE`
	return s.execCount(ctx, "mark all notifications read", query, userID, at.UTC())
}

// DeleteAllForRecipient implements store.NotificationStore.DeleteAllForRecipient.
func (s *PostgresNotificationStore) DeleteAllForRecipient(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `DELETE FROM notifications WHERE recipient_id = $1`
	return s.execCount(ctx, "delete notifications", query, userID)
}

func (s *PostgresNotificationStore) execCount(ctx context.Context, op, query string, args ...any) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(err)
	}
	return int(n), nil
}
