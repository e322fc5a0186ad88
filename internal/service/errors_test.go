package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/domain/lifecycle"
	"github.com/phrazzld/groupwork-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	t.Parallel()

	driver := errors.New("connection reset by peer")

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "not_found", err: store.ErrTaskNotFound, kind: ErrNotFound},
		{name: "terminal_state", err: fmt.Errorf("task: %w", lifecycle.ErrTerminalState), kind: ErrInvalidTransition},
		{name: "duplicate", err: store.ErrMembershipExists, kind: ErrConflict},
		{name: "invalid_entity", err: store.ErrInvalidEntity, kind: domain.ErrValidation},
		{name: "validation_passes_through", err: domain.ErrInvalidTaskStatus, kind: domain.ErrValidation},
		{name: "unmapped", err: driver, kind: ErrStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapError("op", tt.err)
			assert.ErrorIs(t, got, tt.kind)
			assert.ErrorIs(t, got, tt.err, "cause stays reachable")
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, wrapError("op", nil))
	})

	t.Run("service_error_unchanged", func(t *testing.T) {
		forbidden := NewServiceError("delete_task", ErrForbidden, "nope", nil)
		assert.Same(t, forbidden, wrapError("op", forbidden))
	})
}

func TestServiceError_Error(t *testing.T) {
	t.Parallel()

	err := NewServiceError("assign_task", ErrStorageFailure, "storage failure", errors.New("timeout"))
	assert.Equal(t, "assign_task failed: storage failure: timeout", err.Error())

	bare := NewServiceError("mark_read", ErrForbidden, "not yours", nil)
	assert.Equal(t, "mark_read failed: not yours", bare.Error())
}
