package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/groupwork-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "tasks",
		ColumnName:     "title",
		ConstraintName: "tasks_project_status_ordinal_key",
	}
}

// mockResult implements sql.Result for testing
type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m mockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{name: "no_rows", err: sql.ErrNoRows, target: store.ErrNotFound},
		{name: "unique", err: newPgError(uniqueViolationCode), target: store.ErrDuplicate},
		{name: "foreign_key", err: newPgError(foreignKeyViolationCode), target: store.ErrInvalidEntity},
		{name: "check", err: newPgError(checkViolationCode), target: store.ErrInvalidEntity},
		{name: "not_null", err: newPgError(notNullViolationCode), target: store.ErrInvalidEntity},
		{name: "wrapped_unique", err: fmt.Errorf("insert: %w", newPgError(uniqueViolationCode)), target: store.ErrDuplicate},
		{name: "unmapped", err: plain, target: plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tt.err), tt.target)
		})
	}

	assert.NoError(t, MapError(nil))
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(newPgError(uniqueViolationCode)))
	assert.False(t, IsUniqueViolation(newPgError(checkViolationCode)))
	assert.True(t, IsForeignKeyViolation(newPgError(foreignKeyViolationCode)))
	assert.True(t, IsCheckConstraintViolation(newPgError(checkViolationCode)))
	assert.True(t, IsNotNullViolation(newPgError(notNullViolationCode)))
	assert.False(t, IsNotNullViolation(errors.New("other")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		result   sql.Result
		notFound error
		want     error
	}{
		{name: "one_row", result: mockResult{rowsAffected: 1}},
		{name: "zero_rows_default", result: mockResult{}, want: store.ErrNotFound},
		{name: "zero_rows_specific", result: mockResult{}, notFound: store.ErrTaskNotFound, want: store.ErrTaskNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRowsAffected(tt.result, tt.notFound)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("result_error", func(t *testing.T) {
		err := CheckRowsAffected(mockResult{err: errors.New("driver")}, nil)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("nil_result", func(t *testing.T) {
		assert.Error(t, CheckRowsAffected(nil, nil))
	})
}
