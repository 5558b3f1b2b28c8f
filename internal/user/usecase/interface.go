// Package usecase implements account management on top of the credential store.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/user/domain"
)

// UserRepository defines persistence operations for users.
// Implementations must support transaction-aware operations via context propagation.
type UserRepository interface {
	// Create stores a new user. Returns ErrUserAlreadyExists when the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID. Returns ErrUserNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email. Returns ErrUserNotFound if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns a page of users, newest first.
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)

	// UpdateRole changes the role of a user. Returns ErrUserNotFound if not found.
	UpdateRole(ctx context.Context, id uuid.UUID, role authDomain.Role) error
}

// CreateUserInput contains the data needed to provision an account out of band.
type CreateUserInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     authDomain.Role `json:"role"`
}

// UseCase defines account management operations used by the admin API and the CLI.
type UseCase interface {
	// Create provisions an account with an explicit role. Public registration
	// always creates plain users; this is how the first admin comes to exist.
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email, normalizing it first.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns a page of users, newest first.
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)

	// SetRole changes the role of the account identified by email and returns the updated user.
	SetRole(ctx context.Context, email string, role authDomain.Role) (*domain.User, error)
}
