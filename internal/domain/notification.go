package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies what a notification is about.
type NotificationType string

// Notification types.
const (
	NotificationTaskDueToday               NotificationType = "task_due_today"
	NotificationTaskDueSoon                NotificationType = "task_due_approaching"
	NotificationTaskOverdue                NotificationType = "task_overdue"
	NotificationProjectDeadlineApproaching NotificationType = "project_deadline_approaching"
	NotificationProjectDeadlineMissed      NotificationType = "project_deadline_missed"
	NotificationTaskAssigned               NotificationType = "task_assigned"
	NotificationTaskStatusChanged          NotificationType = "task_status_changed"
	NotificationTaskCompleted              NotificationType = "task_completed"
	NotificationInviteReceived             NotificationType = "invite_received"
	NotificationInviteAccepted             NotificationType = "invite_accepted"
	NotificationInviteDeclined             NotificationType = "invite_declined"
	NotificationMemberJoined               NotificationType = "member_joined"
	NotificationProjectCreated             NotificationType = "project_created"
)

// Validation errors for Notification.
var (
	ErrEmptyRecipient       = fmt.Errorf("%w: notification recipient cannot be empty", ErrValidation)
	ErrEmptyNotificationMsg = fmt.Errorf("%w: notification title and message are required", ErrValidation)
)

// Notification is a persisted message for one recipient. The engine decides
// whether and what to notify; delivery happens elsewhere.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	ProjectID   *uuid.UUID       `json:"project_id,omitempty"`
	TaskID      *uuid.UUID       `json:"task_id,omitempty"`
	ActorID     *uuid.UUID       `json:"actor_id,omitempty"`
	Metadata    json.RawMessage  `json:"metadata,omitempty"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
	ReadAt      *time.Time       `json:"read_at,omitempty"`
}

// NotificationDraft is the recipient-independent content of a notification.
type NotificationDraft struct {
	Type      NotificationType
	Title     string
	Message   string
	ProjectID *uuid.UUID
	TaskID    *uuid.UUID
	ActorID   *uuid.UUID
	Metadata  map[string]any
}

// For materialises the draft for one recipient.
func (d NotificationDraft) For(recipientID uuid.UUID, now time.Time) (*Notification, error) {
	n := &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Type:        d.Type,
		Title:       strings.TrimSpace(d.Title),
		Message:     strings.TrimSpace(d.Message),
		ProjectID:   d.ProjectID,
		TaskID:      d.TaskID,
		ActorID:     d.ActorID,
		CreatedAt:   now.UTC(),
	}
	if len(d.Metadata) > 0 {
		raw, err := json.Marshal(d.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification metadata: %w", err)
		}
		n.Metadata = raw
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks the notification's required fields.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrInvalidID
	}
	if n.RecipientID == uuid.Nil {
		return ErrEmptyRecipient
	}
	if n.Type == "" || n.Title == "" || n.Message == "" {
		return ErrEmptyNotificationMsg
	}
	return nil
}

// Recipients returns ids with nil UUIDs and duplicates removed, preserving order.
func Recipients(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
