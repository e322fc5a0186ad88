package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/api/shared"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/scheduler"
	"github.com/phrazzld/groupwork-api/internal/service"
	"github.com/stretchr/testify/mock"
)

type mockTaskService struct{ mock.Mock }

func (m *mockTaskService) Create(ctx context.Context, projectID uuid.UUID, input service.CreateTaskInput, actorID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, projectID, input, actorID)
	return taskArg(args, 0), args.Error(1)
}

func (m *mockTaskService) GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, taskID)
	return taskArg(args, 0), args.Error(1)
}

func (m *mockTaskService) ListByProject(ctx context.Context, projectID uuid.UUID, status *domain.TaskStatus) ([]*domain.Task, error) {
	args := m.Called(ctx, projectID, status)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *mockTaskService) ListByUser(ctx context.Context, userID uuid.UUID, includeCompleted bool) ([]*domain.Task, error) {
	args := m.Called(ctx, userID, includeCompleted)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *mockTaskService) ChangeStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus, actorID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, taskID, status, actorID)
	return taskArg(args, 0), args.Error(1)
}

func (m *mockTaskService) Assign(ctx context.Context, taskID uuid.UUID, assigneeID *uuid.UUID, actorID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, taskID, assigneeID, actorID)
	return taskArg(args, 0), args.Error(1)
}

func (m *mockTaskService) Update(ctx context.Context, taskID uuid.UUID, update domain.TaskUpdate, actorID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, taskID, update, actorID)
	return taskArg(args, 0), args.Error(1)
}

func (m *mockTaskService) Delete(ctx context.Context, taskID uuid.UUID, actorID uuid.UUID) error {
	return m.Called(ctx, taskID, actorID).Error(0)
}

func (m *mockTaskService) GetHistory(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskHistoryEntry, error) {
	args := m.Called(ctx, taskID)
	entries, _ := args.Get(0).([]*domain.TaskHistoryEntry)
	return entries, args.Error(1)
}

func (m *mockTaskService) Reorder(ctx context.Context, projectID uuid.UUID, status domain.TaskStatus, taskIDs []uuid.UUID, actorID uuid.UUID) error {
	return m.Called(ctx, projectID, status, taskIDs, actorID).Error(0)
}

func taskArg(args mock.Arguments, i int) *domain.Task {
	task, _ := args.Get(i).(*domain.Task)
	return task
}

type mockInviteService struct{ mock.Mock }

func (m *mockInviteService) Invite(ctx context.Context, projectID, inviteeID, actorID uuid.UUID) (*domain.Invite, error) {
	args := m.Called(ctx, projectID, inviteeID, actorID)
	invite, _ := args.Get(0).(*domain.Invite)
	return invite, args.Error(1)
}

func (m *mockInviteService) Respond(ctx context.Context, inviteID, actorID uuid.UUID, accept bool) (*domain.Invite, error) {
	args := m.Called(ctx, inviteID, actorID, accept)
	invite, _ := args.Get(0).(*domain.Invite)
	return invite, args.Error(1)
}

func (m *mockInviteService) ListPending(ctx context.Context, userID uuid.UUID) ([]*domain.Invite, error) {
	args := m.Called(ctx, userID)
	invites, _ := args.Get(0).([]*domain.Invite)
	return invites, args.Error(1)
}

type mockProjectService struct{ mock.Mock }

func (m *mockProjectService) Create(ctx context.Context, input service.CreateProjectInput, actorID uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, input, actorID)
	project, _ := args.Get(0).(*domain.Project)
	return project, args.Error(1)
}

func (m *mockProjectService) GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, projectID)
	project, _ := args.Get(0).(*domain.Project)
	return project, args.Error(1)
}

type mockNotificationService struct{ mock.Mock }

func (m *mockNotificationService) NotifyOnce(ctx context.Context, key domain.LedgerKey, recipients []uuid.UUID, draft domain.NotificationDraft) (int, error) {
	args := m.Called(ctx, key, recipients, draft)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationService) Notify(ctx context.Context, recipients []uuid.UUID, draft domain.NotificationDraft) (int, error) {
	args := m.Called(ctx, recipients, draft)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationService) NotifyProjectCreated(ctx context.Context, projectID uuid.UUID) (int, error) {
	args := m.Called(ctx, projectID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	items, _ := args.Get(0).([]*domain.Notification)
	return items, args.Error(1)
}

func (m *mockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationService) MarkRead(ctx context.Context, notificationID, actorID uuid.UUID) error {
	return m.Called(ctx, notificationID, actorID).Error(0)
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationService) ClearAll(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockSweepRunner struct{ mock.Mock }

func (m *mockSweepRunner) RunAll(ctx context.Context) scheduler.Report {
	return m.Called(ctx).Get(0).(scheduler.Report)
}

func (m *mockSweepRunner) RunCheck(ctx context.Context, name string) (scheduler.Result, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(scheduler.Result), args.Error(1)
}

// asUser stands in for the auth middleware.
func asUser(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != uuid.Nil {
				r = r.WithContext(shared.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

type testHandlers struct {
	tasks         *mockTaskService
	invites       *mockInviteService
	projects      *mockProjectService
	notifications *mockNotificationService
	sweeps        *mockSweepRunner
}

func newTestHandlers() *testHandlers {
	return &testHandlers{
		tasks:         &mockTaskService{},
		invites:       &mockInviteService{},
		projects:      &mockProjectService{},
		notifications: &mockNotificationService{},
		sweeps:        &mockSweepRunner{},
	}
}

// router mounts the real route table with a fixed actor in place of JWT
// authentication. uuid.Nil leaves the request unauthenticated.
func (th *testHandlers) router(userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, Handlers{
		Tasks:         NewTaskHandler(th.tasks, nil),
		Projects:      NewProjectHandler(th.projects, th.invites, nil),
		Invites:       NewInviteHandler(th.invites),
		Notifications: NewNotificationHandler(th.notifications),
		Sweep:         NewSweepHandler(th.sweeps, nil),
	}, asUser(userID), asUser(userID))
	return r
}
