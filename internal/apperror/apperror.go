// Package apperror defines the error taxonomy shared by the repository,
// service and handler layers.
//
// Lower layers return one of the constructors below; handlers decide how
// each kind is surfaced (404 page, inline form error, flash + redirect,
// login redirect). Callers test the kind with errors.Is against the
// sentinel values, never by comparing messages.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError carries a sentinel kind plus a message that is safe to show to
// the person making the request.
type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable, shown in pages and flash notices
	Field   string // form field for validation errors, empty otherwise
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing group, post, comment or user.
func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, key),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation such as a taken username or slug.
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q already exists", resource, key),
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// FieldErrors collects validation messages keyed by form field so a form
// can be re-rendered with every problem at once. A non-validation error
// yields nil.
func FieldErrors(err error) map[string]string {
	var appErr *AppError
	if !errors.As(err, &appErr) || !errors.Is(appErr, ErrValidation) {
		return nil
	}
	field := appErr.Field
	if field == "" {
		field = "__all__"
	}
	return map[string]string{field: appErr.Message}
}
