package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/events"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// NotificationEventHandler turns task and invite events into notifications.
type NotificationEventHandler struct {
	notifier NotificationService
	tx       store.TxManager
	logger   *slog.Logger
}

// Ensure NotificationEventHandler implements events.EventHandler interface
var _ events.EventHandler = (*NotificationEventHandler)(nil)

// NewNotificationEventHandler creates a NotificationEventHandler.
// It returns an error if any of the required dependencies are nil.
func NewNotificationEventHandler(
	notifier NotificationService,
	tx store.TxManager,
	logger *slog.Logger,
) (*NotificationEventHandler, error) {
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationEventHandler{
		notifier: notifier,
		tx:       tx,
		logger:   logger.With(slog.String("component", "notification_event_handler")),
	}, nil
}

// HandleEvent implements events.EventHandler. Unknown event types are ignored.
func (h *NotificationEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	var err error
	switch event.Type {
	case events.TaskAssigned:
		var p events.TaskAssignedPayload
		if err = event.UnmarshalPayload(&p); err == nil {
			err = h.taskAssigned(ctx, event.ActorID, p)
		}
	case events.TaskStatusChanged:
		var p events.TaskStatusChangedPayload
		if err = event.UnmarshalPayload(&p); err == nil {
			err = h.taskStatusChanged(ctx, event.ActorID, p)
		}
	case events.InviteCreated:
		var p events.InviteCreatedPayload
		if err = event.UnmarshalPayload(&p); err == nil {
			err = h.inviteCreated(ctx, event.ActorID, p)
		}
	case events.InviteResponded:
		var p events.InviteRespondedPayload
		if err = event.UnmarshalPayload(&p); err == nil {
			err = h.inviteResponded(ctx, event.ActorID, p)
		}
	default:
		log.Debug("ignoring event", slog.String("event_type", string(event.Type)))
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to handle %s event: %w", event.Type, err)
	}
	return nil
}

func (h *NotificationEventHandler) taskAssigned(ctx context.Context, actorID uuid.UUID, p events.TaskAssignedPayload) error {
	if p.AssigneeID == nil || *p.AssigneeID == actorID {
		return nil
	}
	_, err := h.notifier.Notify(ctx, []uuid.UUID{*p.AssigneeID}, domain.NotificationDraft{
		Type:      domain.NotificationTaskAssigned,
		Title:     "New task assigned",
		Message:   fmt.Sprintf("You have been assigned to %q", p.Title),
		ProjectID: &p.ProjectID,
		TaskID:    &p.TaskID,
		ActorID:   &actorID,
	})
	return err
}

func (h *NotificationEventHandler) taskStatusChanged(ctx context.Context, actorID uuid.UUID, p events.TaskStatusChangedPayload) error {
	if p.AssigneeID != nil && *p.AssigneeID != actorID {
		_, err := h.notifier.Notify(ctx, []uuid.UUID{*p.AssigneeID}, domain.NotificationDraft{
			Type:      domain.NotificationTaskStatusChanged,
			Title:     "Task status updated",
			Message:   fmt.Sprintf("%q moved from %s to %s", p.Title, p.From, p.To),
			ProjectID: &p.ProjectID,
			TaskID:    &p.TaskID,
			ActorID:   &actorID,
			Metadata:  map[string]any{"from": p.From, "to": p.To},
		})
		if err != nil {
			return err
		}
	}

	if p.To != domain.TaskStatusDone {
		return nil
	}
	project, err := h.tx.Stores().Projects.GetByID(ctx, p.ProjectID)
	if err != nil {
		return err
	}
	if project.IsLeader(actorID) {
		return nil
	}
	_, err = h.notifier.Notify(ctx, []uuid.UUID{project.TeamLeaderID}, domain.NotificationDraft{
		Type:      domain.NotificationTaskCompleted,
		Title:     "Task completed",
		Message:   fmt.Sprintf("%q in %q is done", p.Title, project.Title),
		ProjectID: &p.ProjectID,
		TaskID:    &p.TaskID,
		ActorID:   &actorID,
	})
	return err
}

func (h *NotificationEventHandler) inviteCreated(ctx context.Context, actorID uuid.UUID, p events.InviteCreatedPayload) error {
	_, err := h.notifier.Notify(ctx, []uuid.UUID{p.InviteeID}, domain.NotificationDraft{
		Type:      domain.NotificationInviteReceived,
		Title:     "Project invitation",
		Message:   fmt.Sprintf("You have been invited to join %q", p.ProjectTitle),
		ProjectID: &p.ProjectID,
		ActorID:   &actorID,
		Metadata:  map[string]any{"invite_id": p.InviteID},
	})
	return err
}

func (h *NotificationEventHandler) inviteResponded(ctx context.Context, actorID uuid.UUID, p events.InviteRespondedPayload) error {
	if p.InvitedByID != nil {
		draft := domain.NotificationDraft{
			Type:      domain.NotificationInviteDeclined,
			Title:     "Invitation declined",
			Message:   fmt.Sprintf("Your invitation to %q was declined", p.ProjectTitle),
			ProjectID: &p.ProjectID,
			ActorID:   &actorID,
		}
		if p.Accepted {
			draft.Type = domain.NotificationInviteAccepted
			draft.Title = "Invitation accepted"
			draft.Message = fmt.Sprintf("Your invitation to %q was accepted", p.ProjectTitle)
		}
		if _, err := h.notifier.Notify(ctx, []uuid.UUID{*p.InvitedByID}, draft); err != nil {
			return err
		}
	}

	if !p.Accepted {
		return nil
	}
	members, err := h.tx.Stores().Invites.ListAcceptedMemberIDs(ctx, p.ProjectID)
	if err != nil {
		return err
	}
	recipients := make([]uuid.UUID, 0, len(members))
	for _, id := range members {
		if id == p.InviteeID || (p.InvitedByID != nil && id == *p.InvitedByID) {
			continue
		}
		recipients = append(recipients, id)
	}
	_, err = h.notifier.Notify(ctx, recipients, domain.NotificationDraft{
		Type:      domain.NotificationMemberJoined,
		Title:     "New team member",
		Message:   fmt.Sprintf("A new member joined %q", p.ProjectTitle),
		ProjectID: &p.ProjectID,
		ActorID:   &actorID,
	})
	return err
}
