package apperror

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the services wraps exactly one of these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrInvalidState = errors.New("invalid_state")
	ErrInvalidInput = errors.New("invalid_input")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable") // transient I/O failure, retryable by the caller
)

var kinds = []error{
	ErrUnauthorized,
	ErrForbidden,
	ErrNotFound,
	ErrInvalidState,
	ErrInvalidInput,
	ErrConflict,
	ErrUnavailable,
}

// AppError carries a kind plus a message that is safe to show to clients.
type AppError struct {
	Err     error  // kind sentinel
	Message string // human-readable message
	Field   string // optional: request field at fault
	Cause   error  // optional: underlying error, never rendered
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func InvalidState(message string) *AppError {
	return &AppError{Err: ErrInvalidState, Message: message}
}

func InvalidInput(field, message string) *AppError {
	return &AppError{Err: ErrInvalidInput, Message: message, Field: field}
}

func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

// Unavailable wraps a transient dependency failure. The cause is kept for logs only.
func Unavailable(dependency string, cause error) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: dependency + " temporarily unavailable",
		Cause:   cause,
	}
}

// KindOf returns the kind name of err ("not_found", ...) or "internal" for untyped errors.
func KindOf(err error) string {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal"
}
