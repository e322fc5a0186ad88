package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

const inviteColumns = `id, project_id, user_id, invited_by_id, status, created_at, responded_at, joined_at`

// PostgresInviteStore implements the store.InviteStore interface on the
// project_members table.
type PostgresInviteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresInviteStore creates a new PostgresInviteStore.
func NewPostgresInviteStore(db store.DBTX, logger *slog.Logger) *PostgresInviteStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresInviteStore{
		db:     db,
		logger: logger.With(slog.String("component", "invite_store")),
	}
}

// Ensure PostgresInviteStore implements store.InviteStore interface
var _ store.InviteStore = (*PostgresInviteStore)(nil)

func scanInvite(row rowScanner) (*domain.Invite, error) {
	var (
		inv       domain.Invite
		invitedBy uuid.NullUUID
		status    string
		responded sql.NullTime
		joined    sql.NullTime
	)
	if err := row.Scan(
		&inv.ID,
		&inv.ProjectID,
		&inv.InviteeID,
		&invitedBy,
		&status,
		&inv.CreatedAt,
		&responded,
		&joined,
	); err != nil {
		return nil, err
	}
	inv.Status = domain.InviteStatus(status)
	inv.InvitedByID = nullUUIDPtr(invitedBy)
	inv.RespondedAt = nullTimePtr(responded)
	inv.JoinedAt = nullTimePtr(joined)
	return &inv, nil
}

// Create implements store.InviteStore.Create.
// Returns store.ErrMembershipExists if the user already has a row for the project.
func (s *PostgresInviteStore) Create(ctx context.Context, invite *domain.Invite) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := invite.Validate(); err != nil {
		log.Warn("invite validation failed during create",
			slog.String("error", err.Error()),
			slog.String("invite_id", invite.ID.String()))
		return err
	}

	query := `
		INSERT INTO project_members (` + inviteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		invite.ID,
		invite.ProjectID,
		invite.InviteeID,
		invite.InvitedByID,
		invite.Status,
		invite.CreatedAt,
		invite.RespondedAt,
		invite.JoinedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("membership already exists",
				slog.String("project_id", invite.ProjectID.String()),
				slog.String("user_id", invite.InviteeID.String()))
			return fmt.Errorf("%w: %v", store.ErrMembershipExists, err)
		}
		log.Error("failed to create invite",
			slog.String("error", err.Error()),
			slog.String("invite_id", invite.ID.String()))
		return mapWriteError(err, "invite", "create")
	}
	return nil
}

// GetByID implements store.InviteStore.GetByID.
func (s *PostgresInviteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	return s.getOne(ctx, `SELECT `+inviteColumns+` FROM project_members WHERE id = $1`, id)
}

// GetForUpdate implements store.InviteStore.GetForUpdate.
func (s *PostgresInviteStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	return s.getOne(ctx, `SELECT `+inviteColumns+` FROM project_members WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresInviteStore) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Invite, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	inv, err := scanInvite(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrInviteNotFound
		}
		log.Error("failed to get invite",
			slog.String("error", err.Error()),
			slog.String("invite_id", id.String()))
		return nil, MapError(err)
	}
	return inv, nil
}

// UpdateResponse implements store.InviteStore.UpdateResponse. The row must
// still be pending; otherwise store.ErrUpdateFailed is returned.
func (s *PostgresInviteStore) UpdateResponse(ctx context.Context, invite *domain.Invite) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE project_members
		SET status = $2, responded_at = $3, joined_at = $4
		WHERE id = $1 AND status = 'pending'
	`
	result, err := s.db.ExecContext(ctx, query, invite.ID, invite.Status, invite.RespondedAt, invite.JoinedAt)
	if err != nil {
		log.Error("failed to record invite response",
			slog.String("error", err.Error()),
			slog.String("invite_id", invite.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result,
		store.NewStoreError("invite", "respond", "invite is no longer pending", store.ErrUpdateFailed))
}

// ListPendingByInvitee implements store.InviteStore.ListPendingByInvitee.
func (s *PostgresInviteStore) ListPendingByInvitee(ctx context.Context, userID uuid.UUID) ([]*domain.Invite, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + inviteColumns + `
		FROM project_members
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list pending invites",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	invites := make([]*domain.Invite, 0)
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, MapError(err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return invites, nil
}

// ListAcceptedMemberIDs implements store.InviteStore.ListAcceptedMemberIDs.
func (s *PostgresInviteStore) ListAcceptedMemberIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id FROM project_members
		WHERE project_id = $1 AND status = 'accepted'
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		log.Error("failed to list project members",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return ids, nil
}
