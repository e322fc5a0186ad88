package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/groupwork-api/internal/api/shared"
	"github.com/phrazzld/groupwork-api/internal/service"
)

// ProjectHandler serves project creation, lookup and membership invites.
type ProjectHandler struct {
	projects service.ProjectService
	invites  service.InviteService
	logger   *slog.Logger
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projects service.ProjectService, invites service.InviteService, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{
		projects: projects,
		invites:  invites,
		logger:   logger.With(slog.String("component", "project_handler")),
	}
}

// CreateProject handles POST /api/projects. The caller becomes team leader.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project, err := h.projects.Create(r.Context(), service.CreateProjectInput{
		Title:        req.Title,
		Description:  req.Description,
		DeadlineDate: req.DeadlineDate,
		CourseID:     req.CourseID,
	}, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, project)
}

// GetProject handles GET /api/projects/{projectID}.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := handleUserIDAndPathUUID(w, r, "projectID")
	if !ok {
		return
	}

	project, err := h.projects.GetByID(r.Context(), projectID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, project)
}

// InviteMember handles POST /api/projects/{projectID}/invites.
func (h *ProjectHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := handleUserIDAndPathUUID(w, r, "projectID")
	if !ok {
		return
	}

	var req InviteMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	invite, err := h.invites.Invite(r.Context(), projectID, req.InviteeID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, invite)
}
