package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/domain/lifecycle"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// Kind-level service errors. Callers check them with errors.Is; the API
// layer maps each one to an HTTP status code.
var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrForbidden indicates the actor may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyResponded indicates an invite that is no longer pending.
	ErrAlreadyResponded = errors.New("invite already responded")

	// ErrConflict indicates the operation would duplicate an existing record.
	ErrConflict = errors.New("conflict")

	// ErrStorageFailure wraps any collaborator failure without a more
	// specific kind.
	ErrStorageFailure = errors.New("storage failure")
)

// ServiceError adds the failing operation to a kind-level error. Both Kind
// and the underlying Err are visible to errors.Is and errors.As.
type ServiceError struct {
	Operation string
	Message   string
	Kind      error
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the kind and the wrapped error.
func (e *ServiceError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewServiceError creates a ServiceError of the given kind.
func NewServiceError(operation string, kind error, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Kind: kind, Err: err}
}

// wrapError classifies err for operation. Errors that already carry a
// service kind or a domain validation error pass through unchanged.
func wrapError(operation string, err error) error {
	var kind error
	switch {
	case err == nil:
		return nil
	case isServiceKind(err), errors.Is(err, domain.ErrValidation):
		return err
	case errors.Is(err, store.ErrNotFound):
		kind = ErrNotFound
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		kind = ErrInvalidTransition
	case errors.Is(err, store.ErrDuplicate):
		kind = ErrConflict
	case errors.Is(err, store.ErrInvalidEntity):
		kind = domain.ErrValidation
	default:
		kind = ErrStorageFailure
	}
	return NewServiceError(operation, kind, kind.Error(), err)
}

func isServiceKind(err error) bool {
	for _, kind := range []error{ErrNotFound, ErrInvalidTransition, ErrForbidden, ErrAlreadyResponded, ErrConflict, ErrStorageFailure} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
