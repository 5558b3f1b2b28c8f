// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. Use cases return these (or errors wrapping
// them) and handlers map them to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate email).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials indicates a login with an unknown email or a wrong password.
	// Both cases share this error so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden indicates the authenticated user doesn't have permission.
	ErrForbidden = errors.New("forbidden")

	// ErrTooManyRequests indicates the caller was rejected by an abuse guard.
	ErrTooManyRequests = errors.New("too many requests")
)

// TooManyRequestsError is returned when an abuse guard rejects an attempt.
// It matches ErrTooManyRequests through errors.Is.
type TooManyRequestsError struct {
	RetryAfter time.Duration
	Reason     string
}

// NewTooManyRequests builds a TooManyRequestsError.
func NewTooManyRequests(reason string, retryAfter time.Duration) *TooManyRequestsError {
	return &TooManyRequestsError{RetryAfter: retryAfter, Reason: reason}
}

func (e *TooManyRequestsError) Error() string {
	if e.Reason == "" {
		return ErrTooManyRequests.Error()
	}
	return fmt.Sprintf("%s: %s", ErrTooManyRequests.Error(), e.Reason)
}

// Is reports whether target is ErrTooManyRequests.
func (e *TooManyRequestsError) Is(target error) bool {
	return target == ErrTooManyRequests
}

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
