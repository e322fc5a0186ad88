package api

import (
	"net/http"

	"github.com/phrazzld/groupwork-api/internal/api/shared"
	"github.com/phrazzld/groupwork-api/internal/service"
)

// InviteHandler serves the invitee's side of project invites.
type InviteHandler struct {
	invites service.InviteService
}

// NewInviteHandler creates an InviteHandler.
func NewInviteHandler(invites service.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// ListPending handles GET /api/invites, newest first.
func (h *InviteHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	invites, err := h.invites.ListPending(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(invites))
}

// Respond handles POST /api/invites/{inviteID}/respond. An invite can be
// answered once; later attempts are 409.
func (h *InviteHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, inviteID, ok := handleUserIDAndPathUUID(w, r, "inviteID")
	if !ok {
		return
	}

	var req RespondInviteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	invite, err := h.invites.Respond(r.Context(), inviteID, userID, *req.Accept)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, invite)
}
