package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers bundles every HTTP handler of the API.
type Handlers struct {
	Tasks         *TaskHandler
	Projects      *ProjectHandler
	Invites       *InviteHandler
	Notifications *NotificationHandler
	Sweep         *SweepHandler
}

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// RegisterRoutes mounts the API under /api. Every route goes through
// authenticate except the sweep trigger, which uses sweepAuth so an external
// cron can call it without a user token.
func RegisterRoutes(r chi.Router, h Handlers, authenticate, sweepAuth Middleware) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/projects", h.Projects.CreateProject)
			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Get("/", h.Projects.GetProject)
				r.Post("/invites", h.Projects.InviteMember)
				r.Post("/tasks", h.Tasks.CreateTask)
				r.Get("/tasks", h.Tasks.ListProjectTasks)
				r.Put("/tasks/order", h.Tasks.ReorderTasks)
			})

			r.Get("/tasks/mine", h.Tasks.ListMyTasks)
			r.Route("/tasks/{taskID}", func(r chi.Router) {
				r.Get("/", h.Tasks.GetTask)
				r.Patch("/", h.Tasks.UpdateTask)
				r.Delete("/", h.Tasks.DeleteTask)
				r.Put("/status", h.Tasks.ChangeStatus)
				r.Put("/assignee", h.Tasks.AssignTask)
				r.Get("/history", h.Tasks.GetTaskHistory)
			})

			r.Get("/invites", h.Invites.ListPending)
			r.Post("/invites/{inviteID}/respond", h.Invites.Respond)

			r.Get("/notifications", h.Notifications.List)
			r.Delete("/notifications", h.Notifications.ClearAll)
			r.Get("/notifications/unread-count", h.Notifications.UnreadCount)
			r.Post("/notifications/read-all", h.Notifications.MarkAllRead)
			r.Post("/notifications/{notificationID}/read", h.Notifications.MarkRead)
		})

		r.With(sweepAuth).Post("/notifications/check-scheduled", h.Sweep.CheckScheduled)
	})
}
