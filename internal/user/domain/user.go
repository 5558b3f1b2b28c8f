// Package domain defines the user identity stored by the credential store.
package domain

import (
	"time"

	"github.com/google/uuid"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/errors"
)

// User is a registered identity. Email is unique and always stored normalized
// (trimmed, lower-case). PasswordHash is never serialized to clients.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         authDomain.Role
	// FailedLoginAttempts and LastFailedLoginAt are account telemetry kept
	// alongside the identity. Lockout decisions come from the abuse guard.
	FailedLoginAttempts int
	LastFailedLoginAt   *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")
)
