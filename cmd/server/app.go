package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/groupwork-api/internal/api"
	"github.com/phrazzld/groupwork-api/internal/api/middleware"
	"github.com/phrazzld/groupwork-api/internal/config"
	"github.com/phrazzld/groupwork-api/internal/events"
	"github.com/phrazzld/groupwork-api/internal/platform/memory"
	"github.com/phrazzld/groupwork-api/internal/platform/postgres"
	"github.com/phrazzld/groupwork-api/internal/scheduler"
	"github.com/phrazzld/groupwork-api/internal/service"
	"github.com/phrazzld/groupwork-api/internal/service/auth"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// application holds the wired dependencies of a running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	tx     store.TxManager
	runner *scheduler.Runner
	ticker *scheduler.Ticker
	router http.Handler
}

// newApplication opens storage and wires services, handlers and the sweep.
func newApplication(ctx context.Context, cfg *config.Config, l *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: l}

	switch cfg.Database.Driver {
	case driverMemory:
		l.Warn("using in-memory storage; data is lost on exit")
		app.tx = memory.NewDB(l)
	case driverPostgres:
		db, err := openDatabase(ctx, cfg.Database, l)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.tx = postgres.NewTxManager(db, l)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if err := app.wire(); err != nil {
		app.cleanup()
		return nil, err
	}
	return app, nil
}

func (app *application) wire() error {
	l := app.logger
	cfg := app.config

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create JWT service: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(l)

	notifications, err := service.NewNotificationService(app.tx, l)
	if err != nil {
		return fmt.Errorf("failed to create notification service: %w", err)
	}
	notificationHandler, err := service.NewNotificationEventHandler(notifications, app.tx, l)
	if err != nil {
		return fmt.Errorf("failed to create notification event handler: %w", err)
	}
	emitter.RegisterHandler(notificationHandler)

	tasks, err := service.NewTaskService(app.tx, emitter, l)
	if err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}
	invites, err := service.NewInviteService(app.tx, emitter, l)
	if err != nil {
		return fmt.Errorf("failed to create invite service: %w", err)
	}
	projects, err := service.NewProjectService(app.tx, notifications, l)
	if err != nil {
		return fmt.Errorf("failed to create project service: %w", err)
	}

	checks, err := scheduler.NewDeadlineChecks(app.tx, notifications, scheduler.DeadlineConfig{
		Location:            cfg.Scheduler.Location(),
		ProjectApproachDays: cfg.Scheduler.ProjectApproachDays,
	}, l)
	if err != nil {
		return fmt.Errorf("failed to create deadline checks: %w", err)
	}
	app.runner = scheduler.NewRunner(checks.All(), scheduler.RunnerConfig{
		WorkerCount: cfg.Scheduler.WorkerCount,
	}, l)
	app.ticker = scheduler.NewTicker(app.runner, cfg.Scheduler.Interval(), l)

	handlers := api.Handlers{
		Tasks:         api.NewTaskHandler(tasks, l),
		Projects:      api.NewProjectHandler(projects, invites, l),
		Invites:       api.NewInviteHandler(invites),
		Notifications: api.NewNotificationHandler(notifications),
		Sweep:         api.NewSweepHandler(app.runner, l),
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtService, cfg.Scheduler.CronSecret)
	app.router = newRouter(handlers, authMiddleware, l)
	return nil
}

// Run starts the sweep ticker and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()
	app.ticker.Start()
	return startHTTPServer(ctx, app.router, app.config.Server.Port, app.logger)
}

func (app *application) cleanup() {
	if app.ticker != nil {
		app.ticker.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		} else {
			app.logger.Info("database connection closed")
		}
	}
}
