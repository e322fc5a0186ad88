package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/groupwork-api/internal/api/shared"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/domain/lifecycle"
	"github.com/phrazzld/groupwork-api/internal/scheduler"
	"github.com/phrazzld/groupwork-api/internal/service"
	"github.com/phrazzld/groupwork-api/internal/service/auth"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// ErrUnauthenticated is returned when a handler runs without an actor in
// the request context.
var ErrUnauthenticated = errors.New("unauthenticated")

// safeValidationErrors are domain sentinels whose text is fit for clients.
var safeValidationErrors = []error{
	domain.ErrEmptyTaskTitle,
	domain.ErrTaskTitleTooLong,
	domain.ErrInvalidTaskStatus,
	domain.ErrInvalidPriority,
	domain.ErrEmptyProjectTitle,
	domain.ErrInvalidDay,
	domain.ErrInvalidID,
}

// MapErrorToStatusCode maps service, store and domain errors to HTTP status
// codes. Unrecognised errors are 500.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors

	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, service.ErrStorageFailure):
		return http.StatusInternalServerError

	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrAlreadyResponded),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, scheduler.ErrUnknownCheck),
		errors.As(err, &verrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message that never includes
// internal error text.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var (
		verrs validator.ValidationErrors
		vErr  *domain.ValidationError
	)

	switch {
	case errors.Is(err, service.ErrStorageFailure):
		return "An unexpected error occurred"
	case errors.Is(err, ErrUnauthenticated):
		return "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, service.ErrForbidden):
		return "You are not allowed to perform this action"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrProjectNotFound):
		return "Project not found"
	case errors.Is(err, store.ErrInviteNotFound):
		return "Invite not found"
	case errors.Is(err, store.ErrNotificationNotFound):
		return "Notification not found"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, service.ErrAlreadyResponded):
		return "Invite has already been answered"
	case errors.Is(err, store.ErrMembershipExists):
		return "User is already invited to or a member of this project"
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, lifecycle.ErrInvalidTransition):
		return "Status change not allowed"
	case errors.Is(err, service.ErrConflict), errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"
	case errors.Is(err, scheduler.ErrUnknownCheck):
		return "Unknown check"
	case errors.As(err, &verrs):
		return SanitizeValidationError(verrs)
	case errors.As(err, &vErr):
		return fmt.Sprintf("Invalid %s: %s", vErr.Field, vErr.Message)
	case errors.Is(err, domain.ErrValidation):
		for _, sentinel := range safeValidationErrors {
			if errors.Is(err, sentinel) {
				return "Invalid request: " + strings.TrimPrefix(sentinel.Error(), domain.ErrValidation.Error()+": ")
			}
		}
		return "Invalid request"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError describes the first failed field of a struct
// validation without echoing the submitted value.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "unique":
		return "contains duplicates"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes an error response for err. An empty message is
// replaced by GetSafeErrorMessage.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
