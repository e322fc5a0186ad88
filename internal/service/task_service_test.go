package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/events"
	"github.com/phrazzld/groupwork-api/internal/platform/memory"
	"github.com/phrazzld/groupwork-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskService_Validation(t *testing.T) {
	db := memory.NewDB(nil)
	emitter := events.NewInMemoryEventEmitter(nil)

	_, err := service.NewTaskService(nil, emitter, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.NewTaskService(db, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	svc, err := service.NewTaskService(db, emitter, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestTaskService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leader, member := uuid.New(), uuid.New()
	project := f.project(t, leader)

	t.Run("defaults_and_ordinals", func(t *testing.T) {
		first := f.task(t, project.ID, leader, "Outline")
		second := f.task(t, project.ID, leader, "Draft")

		assert.Equal(t, domain.TaskStatusToDo, first.Status)
		assert.Equal(t, domain.TaskPriorityMedium, first.Priority)
		assert.Equal(t, 0, first.Ordinal)
		assert.Equal(t, 1, second.Ordinal)

		history, err := f.tasks.GetHistory(ctx, first.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("unknown_project", func(t *testing.T) {
		_, err := f.tasks.Create(ctx, uuid.New(), service.CreateTaskInput{Title: "Lost"}, leader)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("invalid_input", func(t *testing.T) {
		_, err := f.tasks.Create(ctx, project.ID, service.CreateTaskInput{Title: "  "}, leader)
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = f.tasks.Create(ctx, project.ID, service.CreateTaskInput{Title: "x", Priority: "urgent"}, leader)
		assert.ErrorIs(t, err, domain.ErrInvalidPriority)
	})

	t.Run("assignee_is_notified", func(t *testing.T) {
		task, err := f.tasks.Create(ctx, project.ID, service.CreateTaskInput{
			Title:      "Slides",
			AssigneeID: &member,
		}, leader)
		require.NoError(t, err)

		got := f.inbox(t, member, domain.NotificationTaskAssigned)
		require.Len(t, got, 1)
		assert.Equal(t, task.ID, *got[0].TaskID)
	})
}

func TestTaskService_ChangeStatus(t *testing.T) {
	ctx := context.Background()
	leader := uuid.New()

	tests := []struct {
		name    string
		path    []domain.TaskStatus
		next    domain.TaskStatus
		wantErr error
	}{
		{name: "to_do_to_in_progress", next: domain.TaskStatusInProgress},
		{name: "to_do_to_done", next: domain.TaskStatusDone},
		{name: "done_back_to_to_do", path: []domain.TaskStatus{domain.TaskStatusDone}, next: domain.TaskStatusToDo},
		{name: "in_progress_to_archived", path: []domain.TaskStatus{domain.TaskStatusInProgress}, next: domain.TaskStatusArchived},
		{name: "out_of_archived", path: []domain.TaskStatus{domain.TaskStatusArchived}, next: domain.TaskStatusToDo, wantErr: service.ErrInvalidTransition},
		{name: "unknown_status", next: "blocked", wantErr: domain.ErrInvalidTaskStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			project := f.project(t, leader)
			task := f.task(t, project.ID, leader, "Report")

			for _, status := range tt.path {
				_, err := f.tasks.ChangeStatus(ctx, task.ID, status, leader)
				require.NoError(t, err)
			}

			got, err := f.tasks.ChangeStatus(ctx, task.ID, tt.next, leader)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				history, err := f.tasks.GetHistory(ctx, task.ID)
				require.NoError(t, err)
				assert.Len(t, history, len(tt.path))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, got.Status)

			history, err := f.tasks.GetHistory(ctx, task.ID)
			require.NoError(t, err)
			require.Len(t, history, len(tt.path)+1)
			last := history[len(history)-1]
			assert.Equal(t, domain.ChangeStatus, last.ChangeType)
			assert.Equal(t, string(tt.next), *last.NewValue)
			assert.Equal(t, leader, last.ActorID)
		})
	}

	t.Run("missing_task", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.tasks.ChangeStatus(ctx, uuid.New(), domain.TaskStatusDone, leader)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("archiving_twice_writes_one_entry", func(t *testing.T) {
		f := newFixture(t)
		project := f.project(t, leader)
		task := f.task(t, project.ID, leader, "Report")

		for i := 0; i < 2; i++ {
			got, err := f.tasks.ChangeStatus(ctx, task.ID, domain.TaskStatusArchived, leader)
			require.NoError(t, err)
			assert.Equal(t, domain.TaskStatusArchived, got.Status)
		}

		history, err := f.tasks.GetHistory(ctx, task.ID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("moves_to_end_of_target_column", func(t *testing.T) {
		f := newFixture(t)
		project := f.project(t, leader)
		a := f.task(t, project.ID, leader, "A")
		f.task(t, project.ID, leader, "B")

		moved, err := f.tasks.ChangeStatus(ctx, a.ID, domain.TaskStatusInProgress, leader)
		require.NoError(t, err)
		assert.Equal(t, 0, moved.Ordinal)

		back, err := f.tasks.ChangeStatus(ctx, a.ID, domain.TaskStatusToDo, leader)
		require.NoError(t, err)
		assert.Equal(t, 2, back.Ordinal)
	})

	t.Run("notifies_assignee_and_leader", func(t *testing.T) {
		f := newFixture(t)
		member := uuid.New()
		project := f.project(t, leader)
		task := f.task(t, project.ID, leader, "Report")
		_, err := f.tasks.Assign(ctx, task.ID, &member, leader)
		require.NoError(t, err)

		_, err = f.tasks.ChangeStatus(ctx, task.ID, domain.TaskStatusInProgress, leader)
		require.NoError(t, err)
		assert.Len(t, f.inbox(t, member, domain.NotificationTaskStatusChanged), 1)

		_, err = f.tasks.ChangeStatus(ctx, task.ID, domain.TaskStatusDone, member)
		require.NoError(t, err)
		assert.Len(t, f.inbox(t, member, domain.NotificationTaskStatusChanged), 1, "actor is not notified")
		assert.Len(t, f.inbox(t, leader, domain.NotificationTaskCompleted), 1)
	})
}

func TestTaskService_Assign(t *testing.T) {
	ctx := context.Background()
	leader, member := uuid.New(), uuid.New()
	f := newFixture(t)
	project := f.project(t, leader)
	task := f.task(t, project.ID, leader, "Survey")

	got, err := f.tasks.Assign(ctx, task.ID, &member, leader)
	require.NoError(t, err)
	assert.Equal(t, member, *got.AssigneeID)

	_, err = f.tasks.Assign(ctx, task.ID, &member, leader)
	require.NoError(t, err)

	got, err = f.tasks.Assign(ctx, task.ID, nil, leader)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)

	history, err := f.tasks.GetHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 2, "reassigning the same user is a no-op")
	assert.Nil(t, history[0].OldValue)
	assert.Equal(t, member.String(), *history[0].NewValue)
	assert.Equal(t, member.String(), *history[1].OldValue)
	assert.Nil(t, history[1].NewValue)

	assert.Len(t, f.inbox(t, member, domain.NotificationTaskAssigned), 1)

	t.Run("self_assignment_is_silent", func(t *testing.T) {
		_, err := f.tasks.Assign(ctx, task.ID, &leader, leader)
		require.NoError(t, err)
		assert.Empty(t, f.inbox(t, leader, domain.NotificationTaskAssigned))
	})

	t.Run("missing_task", func(t *testing.T) {
		_, err := f.tasks.Assign(ctx, uuid.New(), &member, leader)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	leader := uuid.New()
	f := newFixture(t)
	project := f.project(t, leader)
	task := f.task(t, project.ID, leader, "Survey")
	due := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	got, err := f.tasks.Update(ctx, task.ID, domain.TaskUpdate{
		Title:       domain.Some("User survey"),
		Priority:    domain.Some(domain.TaskPriorityMedium),
		DueDate:     domain.Some(due),
		Description: domain.Null[string](),
	}, leader)
	require.NoError(t, err)
	assert.Equal(t, "User survey", got.Title)
	assert.Equal(t, due, *got.DueDate)

	history, err := f.tasks.GetHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 2, "unchanged priority and description are skipped")
	fields := []string{*history[0].FieldName, *history[1].FieldName}
	assert.ElementsMatch(t, []string{"title", "due_date"}, fields)

	t.Run("clearing_title_is_rejected", func(t *testing.T) {
		_, err := f.tasks.Update(ctx, task.ID, domain.TaskUpdate{Title: domain.Null[string]()}, leader)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("archived_task_still_editable", func(t *testing.T) {
		_, err := f.tasks.ChangeStatus(ctx, task.ID, domain.TaskStatusArchived, leader)
		require.NoError(t, err)
		got, err := f.tasks.Update(ctx, task.ID, domain.TaskUpdate{Priority: domain.Some(domain.TaskPriorityLow)}, leader)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskPriorityLow, got.Priority)
	})
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	leader, creator, stranger := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name    string
		actor   uuid.UUID
		wantErr error
	}{
		{name: "creator", actor: creator},
		{name: "leader", actor: leader},
		{name: "stranger", actor: stranger, wantErr: service.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			project := f.project(t, leader)
			task := f.task(t, project.ID, creator, "Budget")

			err := f.tasks.Delete(ctx, task.ID, tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, err = f.tasks.GetByID(ctx, task.ID)
				assert.NoError(t, err)
				return
			}
			require.NoError(t, err)

			_, err = f.tasks.GetByID(ctx, task.ID)
			assert.ErrorIs(t, err, service.ErrNotFound)

			history, err := f.tasks.GetHistory(ctx, task.ID)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, domain.ChangeDeleted, history[0].ChangeType)
			assert.Equal(t, string(domain.TaskStatusToDo), *history[0].OldValue)

			assert.ErrorIs(t, f.tasks.Delete(ctx, task.ID, tt.actor), service.ErrNotFound)
		})
	}
}

func TestTaskService_Lists(t *testing.T) {
	ctx := context.Background()
	leader, member := uuid.New(), uuid.New()
	f := newFixture(t)
	project := f.project(t, leader)

	soon := day0.Add(24 * time.Hour)
	later := day0.Add(72 * time.Hour)
	mk := func(title string, due *time.Time, priority domain.TaskPriority) *domain.Task {
		task, err := f.tasks.Create(ctx, project.ID, service.CreateTaskInput{
			Title: title, AssigneeID: &member, DueDate: due, Priority: priority,
		}, leader)
		require.NoError(t, err)
		return task
	}
	undated := mk("Undated", nil, domain.TaskPriorityHigh)
	laterTask := mk("Later", &later, domain.TaskPriorityHigh)
	soonLow := mk("Soon low", &soon, domain.TaskPriorityLow)
	soonHigh := mk("Soon high", &soon, domain.TaskPriorityHigh)
	finished := mk("Finished", &soon, domain.TaskPriorityMedium)
	_, err := f.tasks.ChangeStatus(ctx, finished.ID, domain.TaskStatusDone, member)
	require.NoError(t, err)

	mine, err := f.tasks.ListByUser(ctx, member, false)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{soonHigh.ID, soonLow.ID, laterTask.ID, undated.ID}, ids(mine))

	all, err := f.tasks.ListByUser(ctx, member, true)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	done := domain.TaskStatusDone
	column, err := f.tasks.ListByProject(ctx, project.ID, &done)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{finished.ID}, ids(column))

	everything, err := f.tasks.ListByProject(ctx, project.ID, nil)
	require.NoError(t, err)
	assert.Len(t, everything, 5)

	bogus := domain.TaskStatus("blocked")
	_, err = f.tasks.ListByProject(ctx, project.ID, &bogus)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskService_Reorder(t *testing.T) {
	ctx := context.Background()
	leader := uuid.New()
	f := newFixture(t)
	project := f.project(t, leader)
	a := f.task(t, project.ID, leader, "A")
	b := f.task(t, project.ID, leader, "B")
	c := f.task(t, project.ID, leader, "C")
	toDo := domain.TaskStatusToDo

	require.NoError(t, f.tasks.Reorder(ctx, project.ID, toDo, []uuid.UUID{c.ID, a.ID, b.ID}, leader))

	column, err := f.tasks.ListByProject(ctx, project.ID, &toDo)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.ID, a.ID, b.ID}, ids(column))
	assert.Equal(t, []int{3, 4, 5}, []int{column[0].Ordinal, column[1].Ordinal, column[2].Ordinal})

	t.Run("duplicate_ids", func(t *testing.T) {
		err := f.tasks.Reorder(ctx, project.ID, toDo, []uuid.UUID{a.ID, a.ID}, leader)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("task_from_other_column_rolls_back", func(t *testing.T) {
		_, err := f.tasks.ChangeStatus(ctx, b.ID, domain.TaskStatusDone, leader)
		require.NoError(t, err)

		err = f.tasks.Reorder(ctx, project.ID, toDo, []uuid.UUID{a.ID, b.ID}, leader)
		assert.ErrorIs(t, err, domain.ErrValidation)

		got, err := f.tasks.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Ordinal)
	})
}

func ids(tasks []*domain.Task) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
