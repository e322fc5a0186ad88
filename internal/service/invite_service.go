package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/domain/lifecycle"
	"github.com/phrazzld/groupwork-api/internal/events"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// InviteService manages project invitations.
type InviteService interface {
	// Invite creates a pending invite. Only the project leader may invite.
	Invite(ctx context.Context, projectID, inviteeID, actorID uuid.UUID) (*domain.Invite, error)

	// Respond accepts or declines an invite addressed to actorID. An invite
	// answers once; any later call fails with ErrAlreadyResponded.
	Respond(ctx context.Context, inviteID, actorID uuid.UUID, accept bool) (*domain.Invite, error)

	// ListPending returns the user's open invites, newest first.
	ListPending(ctx context.Context, userID uuid.UUID) ([]*domain.Invite, error)
}

type inviteServiceImpl struct {
	tx      store.TxManager
	emitter events.EventEmitter
	now     func() time.Time
	logger  *slog.Logger
}

// NewInviteService creates an InviteService.
// It returns an error if any of the required dependencies are nil.
func NewInviteService(
	tx store.TxManager,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) (InviteService, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := buildOptions(opts)
	return &inviteServiceImpl{
		tx:      tx,
		emitter: emitter,
		now:     o.now,
		logger:  logger.With(slog.String("component", "invite_service")),
	}, nil
}

// Invite implements InviteService.Invite.
func (s *inviteServiceImpl) Invite(ctx context.Context, projectID, inviteeID, actorID uuid.UUID) (*domain.Invite, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	invite, err := domain.NewInvite(projectID, inviteeID, actorID, s.now())
	if err != nil {
		return nil, err
	}

	var project *domain.Project
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		project, err = st.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if !project.IsLeader(actorID) {
			return NewServiceError("invite_member", ErrForbidden, "only the project leader may invite members", nil)
		}
		return st.Invites.Create(ctx, invite)
	})
	if err != nil {
		log.Warn("failed to create invite",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()),
			slog.String("invitee_id", inviteeID.String()))
		return nil, wrapError("invite_member", err)
	}

	log.Info("invite created",
		slog.String("invite_id", invite.ID.String()),
		slog.String("project_id", projectID.String()))

	emitEvent(ctx, s.emitter, log, events.InviteCreated, actorID, events.InviteCreatedPayload{
		InviteID:     invite.ID,
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		InviteeID:    inviteeID,
	}, s.now())
	return invite, nil
}

// Respond implements InviteService.Respond. A missing invite and one
// addressed to another user are indistinguishable to the caller.
func (s *inviteServiceImpl) Respond(
	ctx context.Context,
	inviteID, actorID uuid.UUID,
	accept bool,
) (*domain.Invite, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		invite  *domain.Invite
		project *domain.Project
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		invite, err = st.Invites.GetForUpdate(ctx, inviteID)
		if err != nil {
			return err
		}
		if invite.InviteeID != actorID {
			return NewServiceError("respond_invite", ErrNotFound, "invite not found", store.ErrInviteNotFound)
		}

		if err := invite.Respond(accept, s.now()); err != nil {
			return NewServiceError("respond_invite", ErrAlreadyResponded,
				"invite is no longer pending", err)
		}
		if err := st.Invites.UpdateResponse(ctx, invite); err != nil {
			if errorsIsAny(err, store.ErrUpdateFailed, lifecycle.ErrInvalidTransition) {
				return NewServiceError("respond_invite", ErrAlreadyResponded,
					"invite is no longer pending", err)
			}
			return err
		}

		project, err = st.Projects.GetByID(ctx, invite.ProjectID)
		return err
	})
	if err != nil {
		log.Warn("invite response rejected",
			slog.String("error", err.Error()),
			slog.String("invite_id", inviteID.String()),
			slog.String("actor_id", actorID.String()))
		return nil, wrapError("respond_invite", err)
	}

	log.Info("invite answered",
		slog.String("invite_id", invite.ID.String()),
		slog.String("status", string(invite.Status)))

	emitEvent(ctx, s.emitter, log, events.InviteResponded, actorID, events.InviteRespondedPayload{
		InviteID:     invite.ID,
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		InviteeID:    invite.InviteeID,
		InvitedByID:  invite.InvitedByID,
		Accepted:     accept,
	}, s.now())
	return invite, nil
}

// ListPending implements InviteService.ListPending.
func (s *inviteServiceImpl) ListPending(ctx context.Context, userID uuid.UUID) ([]*domain.Invite, error) {
	invites, err := s.tx.Stores().Invites.ListPendingByInvitee(ctx, userID)
	if err != nil {
		return nil, wrapError("list_pending_invites", err)
	}
	return invites, nil
}
