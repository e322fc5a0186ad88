package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

var taskCols = []string{
	"id", "project_id", "title", "description", "priority", "status", "assignee_id",
	"ordinal", "created_by_id", "due_date", "created_at", "updated_at", "deleted_at",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestNewStores_PanicOnNilDB(t *testing.T) {
	assert.Panics(t, func() { NewPostgresTaskStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresLedgerStore(nil, nil) })
	assert.Panics(t, func() { NewTxManager(nil, nil) })
}

func TestLedgerStore_TryClaim(t *testing.T) {
	key := domain.LedgerKey{
		EntityType: domain.EntityTask,
		EntityID:   uuid.New(),
		Condition:  domain.ConditionOverdue,
		Day:        "2024-03-10",
	}

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "first_claim_wins", affected: 1, want: true},
		{name: "existing_row_loses", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_ledger")).
				WithArgs("task", sqlmock.AnyArg(), "overdue", "2024-03-10", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := NewPostgresLedgerStore(db, nil).TryClaim(context.Background(), key, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid_key_skips_database", func(t *testing.T) {
		db, _ := newMock(t)
		bad := key
		bad.Day = "10/03/2024"

		_, err := NewPostgresLedgerStore(db, nil).TryClaim(context.Background(), bad, testNow)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("driver_error", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_ledger")).
			WillReturnError(errors.New("connection refused"))

		claimed, err := NewPostgresLedgerStore(db, nil).TryClaim(context.Background(), key, testNow)
		assert.Error(t, err)
		assert.False(t, claimed)
	})
}

func TestTaskStore_GetByID(t *testing.T) {
	id, projectID, creator := uuid.New(), uuid.New(), uuid.New()

	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		rows := sqlmock.NewRows(taskCols).AddRow(
			id.String(), projectID.String(), "Write report", nil, "high", "in_progress", nil,
			int64(2), creator.String(), nil, testNow, testNow, nil,
		)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1 AND deleted_at IS NULL")).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(rows)

		task, err := NewPostgresTaskStore(db, nil).GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
		assert.Equal(t, domain.TaskPriorityHigh, task.Priority)
		assert.Equal(t, domain.TaskStatusInProgress, task.Status)
		assert.Equal(t, 2, task.Ordinal)
		assert.Nil(t, task.AssigneeID)
		assert.Nil(t, task.Description)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(taskCols))

		_, err := NewPostgresTaskStore(db, nil).GetByID(context.Background(), id)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestTaskStore_NextOrdinal(t *testing.T) {
	db, mock := newMock(t)
	projectID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(ordinal), -1) + 1 FROM tasks")).
		WithArgs(sqlmock.AnyArg(), "done").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(4)))

	next, err := NewPostgresTaskStore(db, nil).NextOrdinal(context.Background(), projectID, domain.TaskStatusDone)
	require.NoError(t, err)
	assert.Equal(t, 4, next)
}

func TestTaskStore_WriteErrors(t *testing.T) {
	task, err := domain.NewTask(domain.NewTaskParams{
		ProjectID:   uuid.New(),
		Title:       "Slides",
		CreatedByID: uuid.New(),
	}, testNow)
	require.NoError(t, err)

	t.Run("create_duplicate_ordinal", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
			WillReturnError(newPgError(uniqueViolationCode))

		err := NewPostgresTaskStore(db, nil).Create(context.Background(), task)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("create_unknown_project", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
			WillReturnError(newPgError(foreignKeyViolationCode))

		err := NewPostgresTaskStore(db, nil).Create(context.Background(), task)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("update_missing_row", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgresTaskStore(db, nil).Update(context.Background(), task)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("invalid_task_skips_database", func(t *testing.T) {
		db, _ := newMock(t)
		bad := *task
		bad.Title = ""

		err := NewPostgresTaskStore(db, nil).Create(context.Background(), &bad)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestInviteStore_Writes(t *testing.T) {
	invite, err := domain.NewInvite(uuid.New(), uuid.New(), uuid.New(), testNow)
	require.NoError(t, err)

	t.Run("create_existing_membership", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO project_members")).
			WillReturnError(newPgError(uniqueViolationCode))

		err := NewPostgresInviteStore(db, nil).Create(context.Background(), invite)
		assert.ErrorIs(t, err, store.ErrMembershipExists)
	})

	t.Run("respond_after_response", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = 'pending'")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgresInviteStore(db, nil).UpdateResponse(context.Background(), invite)
		assert.ErrorIs(t, err, store.ErrUpdateFailed)
	})
}

func TestNotificationStore_CreateWithMetadata(t *testing.T) {
	db, mock := newMock(t)

	n, err := domain.NotificationDraft{
		Type:     domain.NotificationTaskOverdue,
		Title:    "Task overdue",
		Message:  "Slides is overdue",
		Metadata: map[string]any{"days": 2},
	}.For(uuid.New(), testNow)
	require.NoError(t, err)

	anyArg := sqlmock.AnyArg()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(anyArg, anyArg, "task_overdue", "Task overdue", "Slides is overdue",
			nil, nil, nil, `{"days":2}`, false, anyArg, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresNotificationStore(db, nil).Create(context.Background(), n))
}

func TestTxManager_WithinTx(t *testing.T) {
	key := domain.LedgerKey{EntityType: domain.EntityProject, EntityID: uuid.New(),
		Condition: domain.ConditionDeadlineMissed, Day: "2024-03-09"}

	t.Run("commits", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_ledger")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := NewTxManager(db, nil).WithinTx(context.Background(), func(ctx context.Context, s store.Stores) error {
			claimed, err := s.Ledger.TryClaim(ctx, key, testNow)
			if err != nil {
				return err
			}
			assert.True(t, claimed)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("rolls_back_on_error", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_ledger")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		boom := errors.New("notification insert failed")
		err := NewTxManager(db, nil).WithinTx(context.Background(), func(ctx context.Context, s store.Stores) error {
			if _, err := s.Ledger.TryClaim(ctx, key, testNow); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})
}
