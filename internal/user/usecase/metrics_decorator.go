package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/metrics"
	"github.com/betshield/betshield-api/internal/user/domain"
)

// userUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &userUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (u *userUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	u.metrics.RecordOperation(ctx, "user", operation, status)
	u.metrics.RecordDuration(ctx, "user", operation, time.Since(start), status)
}

// Create records metrics for account provisioning.
func (u *userUseCaseWithMetrics) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Create(ctx, input)
	u.record(ctx, "create", start, err)
	return user, err
}

// GetByID records metrics for user lookups by ID.
func (u *userUseCaseWithMetrics) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.GetByID(ctx, id)
	u.record(ctx, "get", start, err)
	return user, err
}

// GetByEmail records metrics for user lookups by email.
func (u *userUseCaseWithMetrics) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.GetByEmail(ctx, email)
	u.record(ctx, "get_by_email", start, err)
	return user, err
}

// List records metrics for user listing.
func (u *userUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	start := time.Now()
	users, err := u.next.List(ctx, offset, limit)
	u.record(ctx, "list", start, err)
	return users, err
}

// SetRole records metrics for role changes.
func (u *userUseCaseWithMetrics) SetRole(
	ctx context.Context,
	email string,
	role authDomain.Role,
) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.SetRole(ctx, email, role)
	u.record(ctx, "set_role", start, err)
	return user, err
}
