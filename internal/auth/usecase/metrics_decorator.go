package usecase

import (
	"context"
	"time"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/metrics"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Register records metrics for registrations.
func (a *authUseCaseWithMetrics) Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	start := time.Now()
	output, err := a.next.Register(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "register", status)
	a.metrics.RecordDuration(ctx, "auth", "register", time.Since(start), status)

	return output, err
}

// Login records metrics for logins.
func (a *authUseCaseWithMetrics) Login(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	start := time.Now()
	output, err := a.next.Login(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "login", status)
	a.metrics.RecordDuration(ctx, "auth", "login", time.Since(start), status)

	return output, err
}

// Authenticate records metrics for token verification.
func (a *authUseCaseWithMetrics) Authenticate(ctx context.Context, token string) (*authDomain.Principal, error) {
	start := time.Now()
	principal, err := a.next.Authenticate(ctx, token)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "authenticate", status)
	a.metrics.RecordDuration(ctx, "auth", "authenticate", time.Since(start), status)

	return principal, err
}
