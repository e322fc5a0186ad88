package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/events"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// CreateTaskInput holds the caller-supplied fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    domain.TaskPriority
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
}

// TaskService is the task state machine plus its read operations.
//
// Authorization is the caller's job except for Delete, which requires the
// actor to be the task's creator or the project leader. The actor id is
// always recorded in history.
type TaskService interface {
	// Create adds a task at the end of its status column.
	Create(ctx context.Context, projectID uuid.UUID, input CreateTaskInput, actorID uuid.UUID) (*domain.Task, error)

	// GetByID returns ErrNotFound for missing and deleted tasks.
	GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// ListByProject orders by status then ordinal. A nil status lists every column.
	ListByProject(ctx context.Context, projectID uuid.UUID, status *domain.TaskStatus) ([]*domain.Task, error)

	// ListByUser lists tasks assigned to userID, soonest due first.
	ListByUser(ctx context.Context, userID uuid.UUID, includeCompleted bool) ([]*domain.Task, error)

	// ChangeStatus moves the task to status and to the end of that column.
	// Reapplying the current status succeeds without writing history.
	ChangeStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus, actorID uuid.UUID) (*domain.Task, error)

	// Assign sets or, with a nil assigneeID, clears the assignee.
	Assign(ctx context.Context, taskID uuid.UUID, assigneeID *uuid.UUID, actorID uuid.UUID) (*domain.Task, error)

	// Update applies a partial update, writing one history entry per changed field.
	Update(ctx context.Context, taskID uuid.UUID, update domain.TaskUpdate, actorID uuid.UUID) (*domain.Task, error)

	// Delete soft-deletes the task.
	Delete(ctx context.Context, taskID uuid.UUID, actorID uuid.UUID) error

	// GetHistory returns the task's history, oldest first.
	GetHistory(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskHistoryEntry, error)

	// Reorder renumbers the listed tasks of one column in the given order.
	Reorder(ctx context.Context, projectID uuid.UUID, status domain.TaskStatus, taskIDs []uuid.UUID, actorID uuid.UUID) error
}

type taskServiceImpl struct {
	tx      store.TxManager
	emitter events.EventEmitter
	now     func() time.Time
	logger  *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tx store.TxManager,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) (TaskService, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := buildOptions(opts)
	return &taskServiceImpl{
		tx:      tx,
		emitter: emitter,
		now:     o.now,
		logger:  logger.With(slog.String("component", "task_service")),
	}, nil
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(
	ctx context.Context,
	projectID uuid.UUID,
	input CreateTaskInput,
	actorID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	task, err := domain.NewTask(domain.NewTaskParams{
		ProjectID:   projectID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		CreatedByID: actorID,
	}, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := st.Projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		ordinal, err := st.Tasks.NextOrdinal(ctx, projectID, task.Status)
		if err != nil {
			return err
		}
		task.Ordinal = ordinal
		return st.Tasks.Create(ctx, task)
	})
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, wrapError("create_task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", projectID.String()),
		slog.Int("ordinal", task.Ordinal))

	if task.AssigneeID != nil {
		s.emit(ctx, events.TaskAssigned, actorID, events.TaskAssignedPayload{
			TaskID:     task.ID,
			ProjectID:  task.ProjectID,
			Title:      task.Title,
			AssigneeID: task.AssigneeID,
		})
	}
	return task, nil
}

// GetByID implements TaskService.GetByID.
func (s *taskServiceImpl) GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tx.Stores().Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, wrapError("get_task", err)
	}
	return task, nil
}

// ListByProject implements TaskService.ListByProject.
func (s *taskServiceImpl) ListByProject(
	ctx context.Context,
	projectID uuid.UUID,
	status *domain.TaskStatus,
) ([]*domain.Task, error) {
	if status != nil && !status.Valid() {
		return nil, domain.ErrInvalidTaskStatus
	}
	tasks, err := s.tx.Stores().Tasks.ListByProject(ctx, projectID, status)
	if err != nil {
		return nil, wrapError("list_project_tasks", err)
	}
	return tasks, nil
}

// ListByUser implements TaskService.ListByUser.
func (s *taskServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID, includeCompleted bool) ([]*domain.Task, error) {
	tasks, err := s.tx.Stores().Tasks.ListByAssignee(ctx, userID, includeCompleted)
	if err != nil {
		return nil, wrapError("list_user_tasks", err)
	}
	return tasks, nil
}

// ChangeStatus implements TaskService.ChangeStatus.
func (s *taskServiceImpl) ChangeStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status domain.TaskStatus,
	actorID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return nil, domain.ErrInvalidTaskStatus
	}

	var (
		task    *domain.Task
		from    domain.TaskStatus
		changed bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		task, err = st.Tasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		from = task.Status
		changed, err = domain.TaskLifecycle.Transition(from, status)
		if err != nil || !changed {
			return err
		}

		ordinal, err := st.Tasks.NextOrdinal(ctx, task.ProjectID, status)
		if err != nil {
			return err
		}

		now := s.now()
		task.Status, task.Ordinal, task.UpdatedAt = status, ordinal, now.UTC()
		if err := st.Tasks.Update(ctx, task); err != nil {
			return err
		}
		return st.History.Append(ctx, domain.NewHistoryEntry(
			task.ID, actorID, domain.ChangeStatus,
			domain.StringPtr(string(from)), domain.StringPtr(string(status)), now))
	})
	if err != nil {
		log.Warn("status change rejected",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)))
		return nil, wrapError("change_status", err)
	}

	if !changed {
		log.Debug("status unchanged", slog.String("task_id", taskID.String()))
		return task, nil
	}

	log.Info("task status changed",
		slog.String("task_id", task.ID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(status)),
		slog.String("actor_id", actorID.String()))

	s.emit(ctx, events.TaskStatusChanged, actorID, events.TaskStatusChangedPayload{
		TaskID:     task.ID,
		ProjectID:  task.ProjectID,
		Title:      task.Title,
		AssigneeID: task.AssigneeID,
		From:       from,
		To:         status,
	})
	return task, nil
}

// Assign implements TaskService.Assign.
func (s *taskServiceImpl) Assign(
	ctx context.Context,
	taskID uuid.UUID,
	assigneeID *uuid.UUID,
	actorID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if assigneeID != nil && *assigneeID == uuid.Nil {
		return nil, domain.NewValidationError("assignee_id", "must be a valid user id", domain.ErrInvalidID)
	}

	var (
		task     *domain.Task
		previous *uuid.UUID
		changed  bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		task, err = st.Tasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		previous = task.AssigneeID
		if sameAssignee(previous, assigneeID) {
			return nil
		}
		changed = true

		now := s.now()
		task.AssigneeID, task.UpdatedAt = assigneeID, now.UTC()
		if err := st.Tasks.Update(ctx, task); err != nil {
			return err
		}
		return st.History.Append(ctx, domain.NewHistoryEntry(
			task.ID, actorID, domain.ChangeAssignment,
			domain.UUIDString(previous), domain.UUIDString(assigneeID), now))
	})
	if err != nil {
		log.Error("failed to assign task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, wrapError("assign_task", err)
	}

	if !changed {
		return task, nil
	}

	log.Info("task assignment changed",
		slog.String("task_id", task.ID.String()),
		slog.String("actor_id", actorID.String()))

	s.emit(ctx, events.TaskAssigned, actorID, events.TaskAssignedPayload{
		TaskID:             task.ID,
		ProjectID:          task.ProjectID,
		Title:              task.Title,
		AssigneeID:         assigneeID,
		PreviousAssigneeID: previous,
	})
	return task, nil
}

// Update implements TaskService.Update.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	taskID uuid.UUID,
	update domain.TaskUpdate,
	actorID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := update.Validate(); err != nil {
		return nil, err
	}

	var task *domain.Task
	var changes []domain.FieldChange
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		task, err = st.Tasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		changes = update.Apply(task)
		if len(changes) == 0 {
			return nil
		}

		now := s.now()
		task.UpdatedAt = now.UTC()
		if err := st.Tasks.Update(ctx, task); err != nil {
			return err
		}
		for _, change := range changes {
			if err := st.History.Append(ctx, domain.NewFieldHistoryEntry(task.ID, actorID, change, now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, wrapError("update_task", err)
	}

	log.Debug("task updated",
		slog.String("task_id", taskID.String()),
		slog.Int("changed_fields", len(changes)))
	return task, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, taskID uuid.UUID, actorID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		task, err := st.Tasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		if task.CreatedByID != actorID {
			project, err := st.Projects.GetByID(ctx, task.ProjectID)
			if err != nil {
				return err
			}
			if !project.IsLeader(actorID) {
				return NewServiceError("delete_task", ErrForbidden,
					"only the creator or the project leader may delete a task", nil)
			}
		}

		now := s.now()
		if err := st.Tasks.SoftDelete(ctx, task.ID, now); err != nil {
			return err
		}
		return st.History.Append(ctx, domain.NewHistoryEntry(
			task.ID, actorID, domain.ChangeDeleted,
			domain.StringPtr(string(task.Status)), nil, now))
	})
	if err != nil {
		log.Warn("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("actor_id", actorID.String()))
		return wrapError("delete_task", err)
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("actor_id", actorID.String()))
	return nil
}

// GetHistory implements TaskService.GetHistory. History outlives soft
// deletion, so an unknown task yields an empty slice.
func (s *taskServiceImpl) GetHistory(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskHistoryEntry, error) {
	entries, err := s.tx.Stores().History.ListByTask(ctx, taskID)
	if err != nil {
		return nil, wrapError("get_task_history", err)
	}
	return entries, nil
}

// Reorder implements TaskService.Reorder. The listed tasks are renumbered
// from the column's current maximum upwards, so no ordinal is ever shared.
func (s *taskServiceImpl) Reorder(
	ctx context.Context,
	projectID uuid.UUID,
	status domain.TaskStatus,
	taskIDs []uuid.UUID,
	actorID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return domain.ErrInvalidTaskStatus
	}
	seen := make(map[uuid.UUID]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		if _, dup := seen[id]; dup {
			return domain.NewValidationError("task_ids", fmt.Sprintf("task %s listed twice", id), nil)
		}
		seen[id] = struct{}{}
	}
	if len(taskIDs) == 0 {
		return nil
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		base, err := st.Tasks.NextOrdinal(ctx, projectID, status)
		if err != nil {
			return err
		}
		now := s.now()
		for i, id := range taskIDs {
			task, err := st.Tasks.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if task.ProjectID != projectID || task.Status != status {
				return domain.NewValidationError("task_ids",
					fmt.Sprintf("task %s is not in the %s column of this project", id, status), nil)
			}
			if err := st.Tasks.UpdateOrdinal(ctx, id, base+i, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("failed to reorder tasks",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()),
			slog.String("status", string(status)))
		return wrapError("reorder_tasks", err)
	}

	log.Debug("tasks reordered",
		slog.String("project_id", projectID.String()),
		slog.String("status", string(status)),
		slog.Int("count", len(taskIDs)),
		slog.String("actor_id", actorID.String()))
	return nil
}

// emit publishes an event after commit. Failures are logged and never undo
// the mutation that produced the event.
func (s *taskServiceImpl) emit(ctx context.Context, eventType events.EventType, actorID uuid.UUID, payload any) {
	emitEvent(ctx, s.emitter, logger.FromContextOrDefault(ctx, s.logger), eventType, actorID, payload, s.now())
}

func emitEvent(
	ctx context.Context,
	emitter events.EventEmitter,
	log *slog.Logger,
	eventType events.EventType,
	actorID uuid.UUID,
	payload any,
	now time.Time,
) {
	event, err := events.NewEvent(eventType, actorID, payload, now)
	if err == nil {
		err = emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		log.Error("failed to emit event",
			slog.String("event_type", string(eventType)),
			slog.String("error", err.Error()))
	}
}

func sameAssignee(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// errorsIsAny reports whether err matches any of targets.
func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
