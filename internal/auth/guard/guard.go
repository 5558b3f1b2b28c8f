// Package guard implements sliding window abuse guards for authentication endpoints.
//
// A Guard answers two questions per client key: may this attempt proceed
// (CheckAdmission) and what happened to it (RecordOutcome). The same type backs
// both the per IP volume limiter and the per account brute force lockout; they
// differ only by Policy.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/metrics"
)

// Policy configures a Guard.
type Policy struct {
	// Name identifies the guard in keys, logs and metrics.
	Name string
	// MaxAttempts is the number of counted attempts allowed per Window.
	MaxAttempts int
	// Window is the sliding window length.
	Window time.Duration
	// FailuresOnly counts failed attempts only.
	FailuresOnly bool
	// ResetOnSuccess clears the key after a successful attempt.
	ResetOnSuccess bool
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	switch {
	case p.Name == "":
		return errors.New("guard policy name is required")
	case p.MaxAttempts < 1:
		return fmt.Errorf("guard %s: max attempts must be at least 1", p.Name)
	case p.Window <= 0:
		return fmt.Errorf("guard %s: window must be positive", p.Name)
	}
	return nil
}

// Decision is the result of an admission check.
type Decision struct {
	Allowed bool
	// Remaining is the number of counted attempts left in the window.
	Remaining int
	// RetryAfter is how long until the next attempt would be admitted. Zero when allowed.
	RetryAfter time.Duration
}

// Guard enforces a Policy on top of a Store.
type Guard struct {
	policy  Policy
	store   Store
	now     func() time.Time
	logger  *slog.Logger
	metrics metrics.BusinessMetrics
}

// Option customizes a Guard.
type Option func(*Guard)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithLogger sets the logger used for rejections.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithMetrics records admission decisions.
func WithMetrics(m metrics.BusinessMetrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// New creates a Guard.
func New(policy Policy, store Store, opts ...Option) (*Guard, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("guard %s: store is required", policy.Name)
	}

	g := &Guard{
		policy:  policy,
		store:   store,
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
		metrics: metrics.NewNoOpBusinessMetrics(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Name returns the policy name.
func (g *Guard) Name() string {
	return g.policy.Name
}

// CheckAdmission decides whether an attempt for clientKey may proceed. An
// admitted attempt holds a pending slot in the window until RecordOutcome or
// Release settles it, so concurrent callers never exceed MaxAttempts.
// Slots that are never settled expire with the window.
func (g *Guard) CheckAdmission(ctx context.Context, clientKey string) (Decision, error) {
	now := g.now()
	key := g.storeKey(clientKey)

	rec := authDomain.AttemptRecord{ClientKey: key, At: now, Outcome: authDomain.OutcomePending}
	res, err := g.store.Reserve(ctx, key, rec, now.Add(-g.policy.Window), g.policy.MaxAttempts, g.policy.FailuresOnly, g.policy.Window)
	if err != nil {
		return Decision{}, fmt.Errorf("guard %s: failed to reserve attempt: %w", g.policy.Name, err)
	}

	if res.Admitted {
		g.metrics.RecordGuardDecision(ctx, g.policy.Name, "allowed")
		return Decision{Allowed: true, Remaining: g.policy.MaxAttempts - len(res.Counted)}, nil
	}

	// Admission resumes once enough of the oldest attempts leave the window to
	// bring the count under the threshold.
	counted := res.Counted
	pivot := counted[len(counted)-g.policy.MaxAttempts]
	retryAfter := pivot.At.Add(g.policy.Window).Sub(now)
	if retryAfter <= 0 {
		retryAfter = time.Nanosecond
	}

	g.metrics.RecordGuardDecision(ctx, g.policy.Name, "rejected")
	g.logger.Warn("guard rejected attempt",
		slog.String("guard", g.policy.Name),
		slog.Int("attempts", len(counted)),
		slog.Duration("retry_after", retryAfter),
	)

	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

// RecordOutcome settles an admitted attempt with its outcome. Without a
// pending slot the outcome is recorded as a new attempt.
func (g *Guard) RecordOutcome(ctx context.Context, clientKey string, outcome authDomain.Outcome) error {
	if outcome != authDomain.OutcomeSuccess && outcome != authDomain.OutcomeFailure {
		return fmt.Errorf("guard %s: unknown outcome %q", g.policy.Name, outcome)
	}

	key := g.storeKey(clientKey)

	if outcome == authDomain.OutcomeSuccess && g.policy.ResetOnSuccess {
		if err := g.store.Reset(ctx, key); err != nil {
			return fmt.Errorf("guard %s: failed to reset attempts: %w", g.policy.Name, err)
		}
		return nil
	}

	if outcome == authDomain.OutcomeSuccess && g.policy.FailuresOnly {
		return g.Release(ctx, clientKey)
	}

	rec := authDomain.AttemptRecord{ClientKey: key, At: g.now(), Outcome: outcome}
	if err := g.store.Record(ctx, key, rec, g.policy.Window); err != nil {
		return fmt.Errorf("guard %s: failed to record attempt: %w", g.policy.Name, err)
	}
	return nil
}

// Release gives back the slot of an admitted attempt that ended without an outcome.
func (g *Guard) Release(ctx context.Context, clientKey string) error {
	if err := g.store.Release(ctx, g.storeKey(clientKey)); err != nil {
		return fmt.Errorf("guard %s: failed to release attempt: %w", g.policy.Name, err)
	}
	return nil
}

func (g *Guard) storeKey(clientKey string) string {
	return g.policy.Name + ":" + clientKey
}
