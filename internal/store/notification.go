package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
)

// NotificationStore is the notification sink plus the inbox state changes
// a recipient can make.
type NotificationStore interface {
	// Create persists a notification.
	Create(ctx context.Context, n *domain.Notification) error

	// GetByID retrieves a notification.
	// Returns ErrNotificationNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)

	// ListByRecipient returns the user's notifications, newest first.
	// A limit of zero or less means no limit.
	ListByRecipient(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error)

	// CountUnread returns how many unread notifications the user has.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead marks one notification read. Marking an already read
	// notification succeeds without changing ReadAt.
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkAllRead marks every unread notification of the user read and
	// returns how many changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error)

	// DeleteAllForRecipient removes the user's notifications and returns how
	// many were removed. Ledger claims are unaffected.
	DeleteAllForRecipient(ctx context.Context, userID uuid.UUID) (int, error)
}

// LedgerStore records which notification conditions have already fired.
type LedgerStore interface {
	// TryClaim records key and returns true if no claim for key existed.
	// It returns false, with no error, when the key was already claimed.
	// Concurrent callers racing on one key see exactly one true.
	TryClaim(ctx context.Context, key domain.LedgerKey, at time.Time) (bool, error)
}
