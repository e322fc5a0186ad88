package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/store"
)

type taskStore struct{ c conn }

var _ store.TaskStore = (*taskStore)(nil)

func (s *taskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return s.c.do(func(st *state) error {
		if _, ok := st.projects[task.ProjectID]; !ok {
			return store.NewStoreError("task", "create", "project does not exist", store.ErrInvalidEntity)
		}
		if _, ok := st.tasks[task.ID]; ok {
			return store.NewStoreError("task", "create", "id already used", store.ErrDuplicate)
		}
		for _, t := range st.tasks {
			if t.ProjectID == task.ProjectID && t.Status == task.Status && t.Ordinal == task.Ordinal {
				return store.NewStoreError("task", "create", "ordinal already used in column", store.ErrDuplicate)
			}
		}
		st.tasks[task.ID] = *task
		return nil
	})
}

func (s *taskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var out *domain.Task
	err := s.c.do(func(st *state) error {
		t, ok := st.tasks[id]
		if !ok || t.DeletedAt != nil {
			return store.ErrTaskNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (s *taskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id)
}

func (s *taskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return s.c.do(func(st *state) error {
		cur, ok := st.tasks[task.ID]
		if !ok || cur.DeletedAt != nil {
			return store.ErrTaskNotFound
		}
		next := *task
		next.CreatedAt, next.CreatedByID, next.ProjectID = cur.CreatedAt, cur.CreatedByID, cur.ProjectID
		next.DeletedAt = nil
		st.tasks[task.ID] = next
		return nil
	})
}

func (s *taskStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.c.do(func(st *state) error {
		t, ok := st.tasks[id]
		if !ok || t.DeletedAt != nil {
			return store.ErrTaskNotFound
		}
		at := at.UTC()
		t.DeletedAt = &at
		t.UpdatedAt = at
		st.tasks[id] = t
		return nil
	})
}

func (s *taskStore) NextOrdinal(ctx context.Context, projectID uuid.UUID, status domain.TaskStatus) (int, error) {
	next := 0
	err := s.c.do(func(st *state) error {
		for _, t := range st.tasks {
			if t.ProjectID == projectID && t.Status == status && t.Ordinal >= next {
				next = t.Ordinal + 1
			}
		}
		return nil
	})
	return next, err
}

func (s *taskStore) UpdateOrdinal(ctx context.Context, id uuid.UUID, ordinal int, at time.Time) error {
	return s.c.do(func(st *state) error {
		t, ok := st.tasks[id]
		if !ok || t.DeletedAt != nil {
			return store.ErrTaskNotFound
		}
		for otherID, other := range st.tasks {
			if otherID != id && other.ProjectID == t.ProjectID && other.Status == t.Status && other.Ordinal == ordinal {
				return store.NewStoreError("task", "reorder", "ordinal already used in column", store.ErrDuplicate)
			}
		}
		t.Ordinal = ordinal
		t.UpdatedAt = at.UTC()
		st.tasks[id] = t
		return nil
	})
}

func (s *taskStore) ListByProject(ctx context.Context, projectID uuid.UUID, status *domain.TaskStatus) ([]*domain.Task, error) {
	out := make([]*domain.Task, 0)
	err := s.c.do(func(st *state) error {
		for _, t := range st.tasks {
			if t.ProjectID != projectID || t.DeletedAt != nil {
				continue
			}
			if status != nil && t.Status != *status {
				continue
			}
			t := t
			out = append(out, &t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out, err
}

func (s *taskStore) ListByAssignee(ctx context.Context, userID uuid.UUID, includeCompleted bool) ([]*domain.Task, error) {
	out := make([]*domain.Task, 0)
	err := s.c.do(func(st *state) error {
		for _, t := range st.tasks {
			if t.DeletedAt != nil || !t.IsAssignedTo(userID) {
				continue
			}
			if !includeCompleted && !t.IsOpen() {
				continue
			}
			t := t
			out = append(out, &t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, err
}

func (s *taskStore) ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error) {
	return s.listOpenDue(func(due time.Time) bool {
		return !due.Before(from) && due.Before(to)
	})
}

func (s *taskStore) ListOpenDueBefore(ctx context.Context, before time.Time) ([]*domain.Task, error) {
	return s.listOpenDue(func(due time.Time) bool {
		return due.Before(before)
	})
}

func (s *taskStore) listOpenDue(match func(due time.Time) bool) ([]*domain.Task, error) {
	out := make([]*domain.Task, 0)
	err := s.c.do(func(st *state) error {
		for _, t := range st.tasks {
			if t.DeletedAt != nil || !t.IsOpen() || t.DueDate == nil || !match(*t.DueDate) {
				continue
			}
			t := t
			out = append(out, &t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out, err
}

type historyStore struct{ c conn }

var _ store.TaskHistoryStore = (*historyStore)(nil)

func (s *historyStore) Append(ctx context.Context, entry *domain.TaskHistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	return s.c.do(func(st *state) error {
		st.history = append(st.history, *entry)
		return nil
	})
}

func (s *historyStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskHistoryEntry, error) {
	out := make([]*domain.TaskHistoryEntry, 0)
	err := s.c.do(func(st *state) error {
		for _, e := range st.history {
			if e.TaskID == taskID {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	// append order breaks timestamp ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}
