// Package apperror defines the error taxonomy shared by the journal, settings
// and backup packages. Callers classify failures with errors.Is against the
// exported sentinels.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
)

type AppError struct {
	Err     error  // sentinel classifying the failure
	Message string // human-readable reason
	Field   string // optional: offending field or path
	Cause   error  // optional: underlying error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Persistence wraps a storage failure for the given operation.
func Persistence(op string, err error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: op,
		Cause:   err,
	}
}

// IsValidation reports whether err carries ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Reason returns the human-readable message of an AppError, or err.Error().
func Reason(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
