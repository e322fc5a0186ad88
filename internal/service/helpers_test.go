package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/events"
	"github.com/phrazzld/groupwork-api/internal/platform/memory"
	"github.com/phrazzld/groupwork-api/internal/service"
	"github.com/stretchr/testify/require"
)

// testClock is a settable time source shared by every service in a fixture.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	db            *memory.DB
	clock         *testClock
	tasks         service.TaskService
	invites       service.InviteService
	projects      service.ProjectService
	notifications service.NotificationService
}

var day0 = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.NewDB(nil)
	clock := &testClock{now: day0}
	withClock := service.WithClock(clock.Now)

	notifications, err := service.NewNotificationService(db, nil, withClock)
	require.NoError(t, err)

	emitter := events.NewInMemoryEventEmitter(nil)
	handler, err := service.NewNotificationEventHandler(notifications, db, nil)
	require.NoError(t, err)
	emitter.RegisterHandler(handler)

	tasks, err := service.NewTaskService(db, emitter, nil, withClock)
	require.NoError(t, err)
	invites, err := service.NewInviteService(db, emitter, nil, withClock)
	require.NoError(t, err)
	projects, err := service.NewProjectService(db, notifications, nil, withClock)
	require.NoError(t, err)

	return &fixture{
		db:            db,
		clock:         clock,
		tasks:         tasks,
		invites:       invites,
		projects:      projects,
		notifications: notifications,
	}
}

func (f *fixture) project(t *testing.T, leaderID uuid.UUID) *domain.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), service.CreateProjectInput{Title: "Capstone"}, leaderID)
	require.NoError(t, err)
	return p
}

func (f *fixture) task(t *testing.T, projectID, creatorID uuid.UUID, title string) *domain.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), projectID, service.CreateTaskInput{Title: title}, creatorID)
	require.NoError(t, err)
	return task
}

// inbox returns the user's notifications of type typ.
func (f *fixture) inbox(t *testing.T, userID uuid.UUID, typ domain.NotificationType) []*domain.Notification {
	t.Helper()
	all, err := f.notifications.List(context.Background(), userID, false, 0)
	require.NoError(t, err)
	var out []*domain.Notification
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
