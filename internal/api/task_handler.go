package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/groupwork-api/internal/api/shared"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/service"
)

// TaskHandler serves the task state machine over HTTP.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/projects/{projectID}/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := handleUserIDAndPathUUID(w, r, "projectID")
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Create(r.Context(), projectID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TaskPriority(req.Priority),
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", projectID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// GetTask handles GET /api/tasks/{taskID}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	_, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ListProjectTasks handles GET /api/projects/{projectID}/tasks with an
// optional ?status= filter.
func (h *TaskHandler) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := handleUserIDAndPathUUID(w, r, "projectID")
	if !ok {
		return
	}

	var status *domain.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.TaskStatus(raw)
		if !s.Valid() {
			HandleAPIError(w, r, domain.ErrInvalidTaskStatus, "")
			return
		}
		status = &s
	}

	tasks, err := h.tasks.ListByProject(r.Context(), projectID, status)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(tasks))
}

// ListMyTasks handles GET /api/tasks/mine. Completed tasks are included only
// with ?include_completed=true.
func (h *TaskHandler) ListMyTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	includeCompleted, err := queryBool(r, "include_completed")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.tasks.ListByUser(r.Context(), userID, includeCompleted)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(tasks))
}

// ChangeStatus handles PUT /api/tasks/{taskID}/status.
func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.ChangeStatus(r.Context(), taskID, domain.TaskStatus(req.Status), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// AssignTask handles PUT /api/tasks/{taskID}/assignee.
func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	var req AssignTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Assign(r.Context(), taskID, req.AssigneeID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateTask handles PATCH /api/tasks/{taskID}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Update(r.Context(), taskID, req.TaskUpdate, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{taskID}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), taskID, userID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Info("task deleted",
		slog.String("task_id", taskID.String()))

	shared.RespondNoContent(w)
}

// GetTaskHistory handles GET /api/tasks/{taskID}/history.
func (h *TaskHandler) GetTaskHistory(w http.ResponseWriter, r *http.Request) {
	_, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	entries, err := h.tasks.GetHistory(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(entries))
}

// ReorderTasks handles PUT /api/projects/{projectID}/tasks/order.
func (h *TaskHandler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := handleUserIDAndPathUUID(w, r, "projectID")
	if !ok {
		return
	}

	var req ReorderTasksRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.tasks.Reorder(r.Context(), projectID, domain.TaskStatus(req.Status), req.TaskIDs, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondNoContent(w)
}
