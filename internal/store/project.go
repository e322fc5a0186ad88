package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
)

// ProjectStore provides the project reads the engine needs plus creation.
type ProjectStore interface {
	// Create inserts a new project.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project with ProfessorID resolved from its course.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// ListActiveDeadlineBetween returns active projects with
	// from <= deadline_date < to.
	ListActiveDeadlineBetween(ctx context.Context, from, to time.Time) ([]*domain.Project, error)

	// ListActiveDeadlineBefore returns active projects with deadline_date < before.
	ListActiveDeadlineBefore(ctx context.Context, before time.Time) ([]*domain.Project, error)
}

// InviteStore persists project memberships. A pending row is an open invite.
type InviteStore interface {
	// Create inserts a membership row.
	// Returns ErrMembershipExists if the user already has a row for the project.
	Create(ctx context.Context, invite *domain.Invite) error

	// GetByID retrieves an invite.
	// Returns ErrInviteNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error)

	// GetForUpdate retrieves an invite and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invite, error)

	// UpdateResponse persists status, RespondedAt and JoinedAt, but only
	// while the stored row is still pending.
	// Returns ErrUpdateFailed if the row already left pending.
	UpdateResponse(ctx context.Context, invite *domain.Invite) error

	// ListPendingByInvitee returns the user's open invites, newest first.
	ListPendingByInvitee(ctx context.Context, userID uuid.UUID) ([]*domain.Invite, error)

	// ListAcceptedMemberIDs returns the ids of the project's accepted members.
	ListAcceptedMemberIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
}
