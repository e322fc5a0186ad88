package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/groupwork-api/internal/api"
	"github.com/phrazzld/groupwork-api/internal/api/middleware"
)

func newRouter(handlers api.Handlers, authMiddleware *middleware.AuthMiddleware, l *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewTraceMiddleware(l))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	api.RegisterRoutes(r, handlers, authMiddleware.Authenticate, authMiddleware.AuthenticateOrCron)
	return r
}
