package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
)

// EventType names what happened.
type EventType string

// Event types emitted by the services.
const (
	TaskAssigned      EventType = "task.assigned"
	TaskStatusChanged EventType = "task.status_changed"
	InviteCreated     EventType = "invite.created"
	InviteResponded   EventType = "invite.responded"
)

// Event is a domain event. Payload holds one of the payload structs below.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type selects the payload shape
	Type EventType `json:"type"`

	// ActorID is the user whose action produced the event
	ActorID uuid.UUID `json:"actor_id"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload.
func NewEvent(eventType EventType, actorID uuid.UUID, payload any, now time.Time) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		ActorID:   actorID,
		Payload:   payloadBytes,
		CreatedAt: now.UTC(),
	}, nil
}

// TaskAssignedPayload accompanies TaskAssigned. AssigneeID is nil when the
// task was unassigned.
type TaskAssignedPayload struct {
	TaskID             uuid.UUID  `json:"task_id"`
	ProjectID          uuid.UUID  `json:"project_id"`
	Title              string     `json:"title"`
	AssigneeID         *uuid.UUID `json:"assignee_id,omitempty"`
	PreviousAssigneeID *uuid.UUID `json:"previous_assignee_id,omitempty"`
}

// TaskStatusChangedPayload accompanies TaskStatusChanged.
type TaskStatusChangedPayload struct {
	TaskID     uuid.UUID         `json:"task_id"`
	ProjectID  uuid.UUID         `json:"project_id"`
	Title      string            `json:"title"`
	AssigneeID *uuid.UUID        `json:"assignee_id,omitempty"`
	From       domain.TaskStatus `json:"from"`
	To         domain.TaskStatus `json:"to"`
}

// InviteCreatedPayload accompanies InviteCreated.
type InviteCreatedPayload struct {
	InviteID     uuid.UUID `json:"invite_id"`
	ProjectID    uuid.UUID `json:"project_id"`
	ProjectTitle string    `json:"project_title"`
	InviteeID    uuid.UUID `json:"invitee_id"`
}

// InviteRespondedPayload accompanies InviteResponded.
type InviteRespondedPayload struct {
	InviteID     uuid.UUID  `json:"invite_id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	ProjectTitle string     `json:"project_title"`
	InviteeID    uuid.UUID  `json:"invitee_id"`
	InvitedByID  *uuid.UUID `json:"invited_by_id,omitempty"`
	Accepted     bool       `json:"accepted"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
