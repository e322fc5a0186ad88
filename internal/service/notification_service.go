package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// NotificationService creates notifications and manages a user's inbox.
// It only persists notifications; delivery happens elsewhere.
type NotificationService interface {
	// NotifyOnce claims key and, only when the claim is new, creates one
	// notification per distinct recipient in the same transaction. It
	// returns the number of notifications created, which is zero when the
	// key was already claimed or there is nobody to notify.
	NotifyOnce(ctx context.Context, key domain.LedgerKey, recipients []uuid.UUID, draft domain.NotificationDraft) (int, error)

	// Notify creates one notification per distinct recipient without a
	// ledger claim.
	Notify(ctx context.Context, recipients []uuid.UUID, draft domain.NotificationDraft) (int, error)

	// NotifyProjectCreated tells the owning course's professor about a new
	// project, once per project.
	NotifyProjectCreated(ctx context.Context, projectID uuid.UUID) (int, error)

	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error)

	// UnreadCount returns how many unread notifications the user has.
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead marks one of the actor's notifications read.
	MarkRead(ctx context.Context, notificationID, actorID uuid.UUID) error

	// MarkAllRead marks every notification of the user read.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)

	// ClearAll removes every notification of the user.
	ClearAll(ctx context.Context, userID uuid.UUID) (int, error)
}

type notificationServiceImpl struct {
	tx     store.TxManager
	now    func() time.Time
	logger *slog.Logger
}

// NewNotificationService creates a NotificationService.
// It returns an error if the transaction manager is nil.
func NewNotificationService(tx store.TxManager, logger *slog.Logger, opts ...Option) (NotificationService, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := buildOptions(opts)
	return &notificationServiceImpl{
		tx:     tx,
		now:    o.now,
		logger: logger.With(slog.String("component", "notification_service")),
	}, nil
}

// NotifyOnce implements NotificationService.NotifyOnce.
func (s *notificationServiceImpl) NotifyOnce(
	ctx context.Context,
	key domain.LedgerKey,
	recipients []uuid.UUID,
	draft domain.NotificationDraft,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := key.Validate(); err != nil {
		return 0, err
	}
	recipients = domain.Recipients(recipients...)
	if len(recipients) == 0 {
		return 0, nil
	}

	created := 0
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		now := s.now()
		claimed, err := st.Ledger.TryClaim(ctx, key, now)
		if err != nil || !claimed {
			return err
		}
		created, err = createAll(ctx, st.Notifications, recipients, draft, now)
		return err
	})
	if err != nil {
		log.Error("failed to create claimed notifications",
			slog.String("key", key.String()),
			slog.String("error", err.Error()))
		return 0, wrapError("notify_once", err)
	}

	if created == 0 {
		log.Debug("notification already claimed", slog.String("key", key.String()))
	} else {
		log.Info("notifications created",
			slog.String("key", key.String()),
			slog.String("type", string(draft.Type)),
			slog.Int("count", created))
	}
	return created, nil
}

// Notify implements NotificationService.Notify.
func (s *notificationServiceImpl) Notify(
	ctx context.Context,
	recipients []uuid.UUID,
	draft domain.NotificationDraft,
) (int, error) {
	recipients = domain.Recipients(recipients...)
	if len(recipients) == 0 {
		return 0, nil
	}

	var created int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		created, err = createAll(ctx, st.Notifications, recipients, draft, s.now())
		return err
	})
	if err != nil {
		return 0, wrapError("notify", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("notifications created",
		slog.String("type", string(draft.Type)),
		slog.Int("count", created))
	return created, nil
}

// NotifyProjectCreated implements NotificationService.NotifyProjectCreated.
// Projects without a course, or whose course has no professor, are skipped.
func (s *notificationServiceImpl) NotifyProjectCreated(ctx context.Context, projectID uuid.UUID) (int, error) {
	project, err := s.tx.Stores().Projects.GetByID(ctx, projectID)
	if err != nil {
		return 0, wrapError("notify_project_created", err)
	}
	if project.ProfessorID == nil {
		return 0, nil
	}

	key, err := domain.NewLedgerKey(domain.EntityProject, project.ID, domain.ConditionProjectCreated,
		domain.DayOf(project.CreatedAt, time.UTC))
	if err != nil {
		return 0, err
	}

	return s.NotifyOnce(ctx, key, []uuid.UUID{*project.ProfessorID}, domain.NotificationDraft{
		Type:      domain.NotificationProjectCreated,
		Title:     "New project created",
		Message:   fmt.Sprintf("A new project %q was created in your course", project.Title),
		ProjectID: &project.ID,
		ActorID:   &project.TeamLeaderID,
	})
}

// List implements NotificationService.List.
func (s *notificationServiceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit int,
) ([]*domain.Notification, error) {
	list, err := s.tx.Stores().Notifications.ListByRecipient(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, wrapError("list_notifications", err)
	}
	return list, nil
}

// UnreadCount implements NotificationService.UnreadCount.
func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.tx.Stores().Notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, wrapError("count_unread", err)
	}
	return n, nil
}

// MarkRead implements NotificationService.MarkRead.
func (s *notificationServiceImpl) MarkRead(ctx context.Context, notificationID, actorID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		n, err := st.Notifications.GetByID(ctx, notificationID)
		if err != nil {
			return err
		}
		if n.RecipientID != actorID {
			return NewServiceError("mark_read", ErrForbidden, "notification belongs to another user", nil)
		}
		return st.Notifications.MarkRead(ctx, notificationID, s.now())
	})
	return wrapError("mark_read", err)
}

// MarkAllRead implements NotificationService.MarkAllRead.
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.tx.Stores().Notifications.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, wrapError("mark_all_read", err)
	}
	return n, nil
}

// ClearAll implements NotificationService.ClearAll.
func (s *notificationServiceImpl) ClearAll(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.tx.Stores().Notifications.DeleteAllForRecipient(ctx, userID)
	if err != nil {
		return 0, wrapError("clear_notifications", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("notifications cleared",
		slog.String("user_id", userID.String()),
		slog.Int("count", n))
	return n, nil
}

func createAll(
	ctx context.Context,
	sink store.NotificationStore,
	recipients []uuid.UUID,
	draft domain.NotificationDraft,
	now time.Time,
) (int, error) {
	for i, recipient := range recipients {
		n, err := draft.For(recipient, now)
		if err != nil {
			return i, err
		}
		if err := sink.Create(ctx, n); err != nil {
			return i, err
		}
	}
	return len(recipients), nil
}
