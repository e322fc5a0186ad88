package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain/lifecycle"
)

// InviteStatus is the response state of a project invite.
type InviteStatus string

// Invite statuses. Accepted and declined are terminal.
const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// InviteLifecycle is the two-way response machine for invites. Unlike tasks,
// reapplying a terminal status is not a no-op: an invite answers once.
var InviteLifecycle = lifecycle.New("invite", map[InviteStatus][]InviteStatus{
	InviteStatusPending:  {InviteStatusAccepted, InviteStatusDeclined},
	InviteStatusAccepted: {},
	InviteStatusDeclined: {},
})

// Invite is a project membership record. Pending rows are open invitations;
// accepted rows are members.
type Invite struct {
	ID          uuid.UUID    `json:"id"`
	ProjectID   uuid.UUID    `json:"project_id"`
	InviteeID   uuid.UUID    `json:"invitee_id"`
	InvitedByID *uuid.UUID   `json:"invited_by_id,omitempty"`
	Status      InviteStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
	JoinedAt    *time.Time   `json:"joined_at,omitempty"`
}

// NewInvite builds a pending invite.
func NewInvite(projectID, inviteeID, invitedByID uuid.UUID, now time.Time) (*Invite, error) {
	inv := &Invite{
		ID:          uuid.New(),
		ProjectID:   projectID,
		InviteeID:   inviteeID,
		InvitedByID: &invitedByID,
		Status:      InviteStatusPending,
		CreatedAt:   now.UTC(),
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// NewMembership builds an already-accepted membership, used for a project's
// leader at creation time.
func NewMembership(projectID, userID uuid.UUID, now time.Time) *Invite {
	now = now.UTC()
	return &Invite{
		ID:          uuid.New(),
		ProjectID:   projectID,
		InviteeID:   userID,
		Status:      InviteStatusAccepted,
		CreatedAt:   now,
		RespondedAt: &now,
		JoinedAt:    &now,
	}
}

// Validate checks the invite's required fields.
func (i *Invite) Validate() error {
	if i.ID == uuid.Nil || i.ProjectID == uuid.Nil || i.InviteeID == uuid.Nil {
		return ErrInvalidID
	}
	if !InviteLifecycle.Known(i.Status) {
		return NewValidationError("status", "invalid invite status", nil)
	}
	return nil
}

// Respond moves a pending invite to accepted or declined and stamps the
// response time. It returns lifecycle.ErrTerminalState when already answered.
func (i *Invite) Respond(accept bool, now time.Time) error {
	next := InviteStatusDeclined
	if accept {
		next = InviteStatusAccepted
	}
	if _, err := InviteLifecycle.Transition(i.Status, next); err != nil {
		return err
	}

	now = now.UTC()
	i.Status = next
	i.RespondedAt = &now
	if accept {
		i.JoinedAt = &now
	}
	return nil
}
