package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// CreateProjectInput holds the caller-supplied fields of a new project.
type CreateProjectInput struct {
	Title        string
	Description  *string
	DeadlineDate *time.Time
	CourseID     *uuid.UUID
}

// ProjectService covers the minimal project writes the engine needs.
type ProjectService interface {
	// Create makes actorID the leader and first accepted member of a new
	// active project, then notifies the course professor.
	Create(ctx context.Context, input CreateProjectInput, actorID uuid.UUID) (*domain.Project, error)

	// GetByID returns ErrNotFound for an unknown project.
	GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error)
}

type projectServiceImpl struct {
	tx       store.TxManager
	notifier NotificationService
	now      func() time.Time
	logger   *slog.Logger
}

// NewProjectService creates a ProjectService.
// It returns an error if any of the required dependencies are nil.
func NewProjectService(
	tx store.TxManager,
	notifier NotificationService,
	logger *slog.Logger,
	opts ...Option,
) (ProjectService, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := buildOptions(opts)
	return &projectServiceImpl{
		tx:       tx,
		notifier: notifier,
		now:      o.now,
		logger:   logger.With(slog.String("component", "project_service")),
	}, nil
}

// Create implements ProjectService.Create.
func (s *projectServiceImpl) Create(
	ctx context.Context,
	input CreateProjectInput,
	actorID uuid.UUID,
) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	project, err := domain.NewProject(input.Title, input.Description, actorID, input.DeadlineDate, input.CourseID, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if err := st.Projects.Create(ctx, project); err != nil {
			return err
		}
		return st.Invites.Create(ctx, domain.NewMembership(project.ID, actorID, now))
	})
	if err != nil {
		log.Error("failed to create project",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return nil, wrapError("create_project", err)
	}

	log.Info("project created",
		slog.String("project_id", project.ID.String()),
		slog.String("leader_id", actorID.String()))

	if _, err := s.notifier.NotifyProjectCreated(ctx, project.ID); err != nil {
		log.Error("failed to notify professor of new project",
			slog.String("project_id", project.ID.String()),
			slog.String("error", err.Error()))
	}
	return project, nil
}

// GetByID implements ProjectService.GetByID.
func (s *projectServiceImpl) GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	project, err := s.tx.Stores().Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, wrapError("get_project", err)
	}
	return project, nil
}
