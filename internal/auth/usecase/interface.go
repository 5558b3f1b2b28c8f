// Package usecase implements the auth pipeline: registration, login and
// verification of bearer tokens on protected requests.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/auth/guard"
	userDomain "github.com/betshield/betshield-api/internal/user/domain"
)

// UserRepository is the credential store as seen by the auth pipeline.
// Implementations must support transaction-aware operations via context propagation.
type UserRepository interface {
	// Create stores a new identity. Returns ErrUserAlreadyExists on a duplicate email,
	// enforced by a uniqueness constraint.
	Create(ctx context.Context, user *userDomain.User) error

	// GetByEmail retrieves an identity by normalized email. Returns ErrUserNotFound if not found.
	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)

	// GetByID retrieves an identity by ID. Returns ErrUserNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)

	// UpdateFailureState stores failed login telemetry.
	UpdateFailureState(ctx context.Context, id uuid.UUID, failedAttempts int, lastFailedAt *time.Time) error
}

// Guard is an abuse guard instance. *guard.Guard implements it.
// Every admitted attempt is settled with RecordOutcome or given back with Release.
type Guard interface {
	Name() string
	CheckAdmission(ctx context.Context, clientKey string) (guard.Decision, error)
	RecordOutcome(ctx context.Context, clientKey string, outcome authDomain.Outcome) error
	Release(ctx context.Context, clientKey string) error
}

// RegisterInput contains the registration payload and the caller address.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientIP string `json:"-"`
}

// LoginInput contains the login payload and the caller address.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientIP string `json:"-"`
}

// AuthOutput is the result of a successful register or login.
type AuthOutput struct {
	Token *authDomain.IssuedToken
	User  *userDomain.User
}

// AuthUseCase is the auth pipeline every protected route depends on.
type AuthUseCase interface {
	// Register validates the payload, creates a user identity and issues a short lived token.
	// Returns ErrInvalidInput, ErrTooManyRequests or ErrUserAlreadyExists (Conflict).
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)

	// Login verifies credentials and issues a token.
	// Unknown emails and wrong passwords both return ErrInvalidCredentials.
	// A locked account returns ErrTooManyRequests without reading the credential store.
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)

	// Authenticate verifies a bearer token and resolves the principal from it alone.
	Authenticate(ctx context.Context, token string) (*authDomain.Principal, error)
}
