package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
)

// CreateTaskRequest is the body of POST /api/projects/{projectID}/tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=255"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

// ChangeStatusRequest is the body of PUT /api/tasks/{taskID}/status.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=to_do in_progress done archived"`
}

// AssignTaskRequest is the body of PUT /api/tasks/{taskID}/assignee.
// A null assignee unassigns the task.
type AssignTaskRequest struct {
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

// UpdateTaskRequest is the body of PATCH /api/tasks/{taskID}. Omitted fields
// are left unchanged and explicit nulls clear them.
type UpdateTaskRequest struct {
	domain.TaskUpdate
}

// Validate rejects an update that supplies no field.
func (r UpdateTaskRequest) Validate() error {
	if r.Empty() {
		return domain.NewValidationError("body", "no fields to update", nil)
	}
	return r.TaskUpdate.Validate()
}

// ReorderTasksRequest is the body of PUT /api/projects/{projectID}/tasks/order.
type ReorderTasksRequest struct {
	Status  string      `json:"status"   validate:"required,oneof=to_do in_progress done archived"`
	TaskIDs []uuid.UUID `json:"task_ids" validate:"required,min=1,unique"`
}

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Title        string     `json:"title"         validate:"required,max=255"`
	Description  *string    `json:"description"`
	DeadlineDate *time.Time `json:"deadline_date"`
	CourseID     *uuid.UUID `json:"course_id"`
}

// InviteMemberRequest is the body of POST /api/projects/{projectID}/invites.
type InviteMemberRequest struct {
	InviteeID uuid.UUID `json:"invitee_id" validate:"required"`
}

// RespondInviteRequest is the body of POST /api/invites/{inviteID}/respond.
type RespondInviteRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Count int `json:"count"`
}

// CheckResultResponse is one check's outcome within a sweep.
type CheckResultResponse struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// SweepResponse is the body returned by the sweep endpoint. It is sent with
// 200 even when some checks failed; Partial marks that case.
type SweepResponse struct {
	Results []CheckResultResponse `json:"results"`
	Total   int                   `json:"total"`
	Partial bool                  `json:"partial"`
}
