package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds the identity service distinguishes.
// Services wrap one of these in an AppError; handlers map them to HTTP status
// codes with errors.Is, so the service layer never touches status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

type AppError struct {
	Err     error  // sentinel identifying the error kind
	Message string // Human-readable error message, safe to show to callers
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict signals a uniqueness violation, e.g. signing up with an email
// that already has an account. HTTP handlers map this to 409.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized signals failed credential verification. It is also returned
// when a login-key lookup finds nothing — the caller cannot distinguish
// "no such account" from "wrong password", which avoids leaking which emails
// are registered. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Internal signals a persistence or downstream-collaborator failure. The
// message is a generic description; the underlying cause is logged server-side
// and never sent to the caller. HTTP handlers map this to 500.
func Internal(message string) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: message,
	}
}
