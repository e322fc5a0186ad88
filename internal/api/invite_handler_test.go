package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestInviteHandler_Respond(t *testing.T) {
	t.Parallel()

	inviteID := uuid.New()
	path := fmt.Sprintf("/api/invites/%s/respond", inviteID)

	tests := []struct {
		name       string
		body       string
		accept     bool
		serviceErr error
		callsSvc   bool
		wantStatus int
		wantError  string
	}{
		{name: "accept", body: `{"accept":true}`, accept: true, callsSvc: true, wantStatus: http.StatusOK},
		{name: "decline", body: `{"accept":false}`, accept: false, callsSvc: true, wantStatus: http.StatusOK},
		{
			name:       "answered_twice",
			body:       `{"accept":false}`,
			callsSvc:   true,
			serviceErr: service.NewServiceError("respond_invite", service.ErrAlreadyResponded, "already responded", nil),
			wantStatus: http.StatusConflict,
			wantError:  "Invite has already been answered",
		},
		{
			name:       "someone_elses_invite",
			body:       `{"accept":true}`,
			accept:     true,
			callsSvc:   true,
			serviceErr: service.NewServiceError("respond_invite", service.ErrNotFound, "invite not found", nil),
			wantStatus: http.StatusNotFound,
			wantError:  "Resource not found",
		},
		{name: "accept_missing", body: `{}`, wantStatus: http.StatusBadRequest, wantError: "Invalid accept: required field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			th := newTestHandlers()
			if tt.callsSvc {
				var invite *domain.Invite
				if tt.serviceErr == nil {
					status := domain.InviteStatusDeclined
					if tt.accept {
						status = domain.InviteStatusAccepted
					}
					invite = &domain.Invite{ID: inviteID, InviteeID: actorID, Status: status}
				}
				th.invites.On("Respond", mock.Anything, inviteID, actorID, tt.accept).Return(invite, tt.serviceErr)
			}

			w := serve(t, th.router(actorID), http.MethodPost, path, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, errorBody(t, w))
			}
			th.invites.AssertExpectations(t)
		})
	}
}

func TestInviteHandler_ListPending(t *testing.T) {
	t.Parallel()

	th := newTestHandlers()
	th.invites.On("ListPending", mock.Anything, actorID).Return([]*domain.Invite{
		{ID: uuid.New(), ProjectID: projectID, InviteeID: actorID, Status: domain.InviteStatusPending},
	}, nil)

	w := serve(t, th.router(actorID), http.MethodGet, "/api/invites", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}
