package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain/lifecycle"
)

func validTaskParams() NewTaskParams {
	return NewTaskParams{
		ProjectID:   uuid.New(),
		Title:       "  Write report  ",
		CreatedByID: uuid.New(),
	}
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	task, err := NewTask(validTaskParams(), now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID")
	}
	if task.Title != "Write report" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Priority != TaskPriorityMedium {
		t.Errorf("Expected default priority medium, got %s", task.Priority)
	}
	if task.Status != TaskStatusToDo {
		t.Errorf("Expected default status to_do, got %s", task.Status)
	}
	if !task.CreatedAt.Equal(now) || !task.UpdatedAt.Equal(now) {
		t.Errorf("Expected timestamps %v, got %v / %v", now, task.CreatedAt, task.UpdatedAt)
	}

	p := validTaskParams()
	p.Title = "   "
	if _, err := NewTask(p, now); !errors.Is(err, ErrEmptyTaskTitle) {
		t.Errorf("Expected ErrEmptyTaskTitle, got %v", err)
	}

	p = validTaskParams()
	p.Priority = "urgent"
	if _, err := NewTask(p, now); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}

	p = validTaskParams()
	p.ProjectID = uuid.Nil
	if _, err := NewTask(p, now); !errors.Is(err, ErrEmptyTaskProjectID) {
		t.Errorf("Expected ErrEmptyTaskProjectID, got %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	free := []TaskStatus{TaskStatusToDo, TaskStatusInProgress, TaskStatusDone}
	for _, from := range free {
		for _, to := range free {
			changed, err := TaskLifecycle.Transition(from, to)
			if err != nil {
				t.Fatalf("%s -> %s: unexpected error %v", from, to, err)
			}
			if changed != (from != to) {
				t.Errorf("%s -> %s: changed=%v", from, to, changed)
			}
		}

		if changed, err := TaskLifecycle.Transition(from, TaskStatusArchived); err != nil || !changed {
			t.Errorf("%s -> archived: changed=%v err=%v", from, changed, err)
		}
		if _, err := TaskLifecycle.Transition(TaskStatusArchived, from); !errors.Is(err, lifecycle.ErrTerminalState) {
			t.Errorf("archived -> %s: expected terminal error, got %v", from, err)
		}
	}

	changed, err := TaskLifecycle.Transition(TaskStatusArchived, TaskStatusArchived)
	if err != nil || changed {
		t.Errorf("archived -> archived should be a no-op, changed=%v err=%v", changed, err)
	}
}

func TestTaskUpdate_Apply(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	desc := "old"
	task := &Task{Title: "Title", Description: &desc, Priority: TaskPriorityLow, DueDate: &due}

	t.Run("absent fields untouched", func(t *testing.T) {
		cp := *task
		changes := TaskUpdate{}.Apply(&cp)
		if len(changes) != 0 {
			t.Fatalf("Expected no changes, got %d", len(changes))
		}
		if cp.Description == nil || *cp.Description != "old" {
			t.Error("Expected description to be untouched")
		}
	})

	t.Run("null clears optional fields", func(t *testing.T) {
		cp := *task
		changes := TaskUpdate{Description: Null[string](), DueDate: Null[time.Time]()}.Apply(&cp)
		if len(changes) != 2 {
			t.Fatalf("Expected 2 changes, got %d", len(changes))
		}
		if cp.Description != nil || cp.DueDate != nil {
			t.Error("Expected description and due date cleared")
		}
		if changes[0].OldValue == nil || *changes[0].OldValue != "old" || changes[0].NewValue != nil {
			t.Errorf("Unexpected description change %+v", changes[0])
		}
	})

	t.Run("same values record nothing", func(t *testing.T) {
		cp := *task
		changes := TaskUpdate{
			Title:    Some("Title"),
			Priority: Some(TaskPriorityLow),
			DueDate:  Some(due),
		}.Apply(&cp)
		if len(changes) != 0 {
			t.Fatalf("Expected no changes, got %+v", changes)
		}
	})

	t.Run("title change keeps old value", func(t *testing.T) {
		cp := *task
		changes := TaskUpdate{Title: Some("New")}.Apply(&cp)
		if len(changes) != 1 || *changes[0].OldValue != "Title" || *changes[0].NewValue != "New" {
			t.Fatalf("Unexpected changes %+v", changes)
		}
		if cp.Title != "New" {
			t.Errorf("Expected title New, got %s", cp.Title)
		}
	})
}

func TestTaskUpdate_Validate(t *testing.T) {
	t.Parallel()

	cases := map[string]TaskUpdate{
		"null title":       {Title: Null[string]()},
		"empty title":      {Title: Some(" ")},
		"null priority":    {Priority: Null[TaskPriority]()},
		"unknown priority": {Priority: Some(TaskPriority("urgent"))},
	}
	for name, u := range cases {
		if err := u.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}

	if err := (TaskUpdate{Description: Null[string]()}).Validate(); err != nil {
		t.Errorf("Expected clearing description to be valid, got %v", err)
	}
}
