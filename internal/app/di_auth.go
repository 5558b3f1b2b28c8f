package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	authHTTP "github.com/betshield/betshield-api/internal/auth/http"
	"github.com/betshield/betshield-api/internal/auth/guard"
	authService "github.com/betshield/betshield-api/internal/auth/service"
	authUseCase "github.com/betshield/betshield-api/internal/auth/usecase"
)

const (
	// IPGuardName keys the per client IP limiter on register and login.
	IPGuardName = "auth-ip"
	// LockoutGuardName keys the per account failed login lockout.
	LockoutGuardName = "login-lockout"

	redisKeyPrefix   = "betshield:guard:"
	redisPingTimeout = 5 * time.Second
)

// PasswordHasher returns the configured password hasher.
func (c *Container) PasswordHasher() (authService.PasswordHasher, error) {
	c.passwordHasherInit.Do(func() {
		c.passwordHasher, c.initErrors["passwordHasher"] = authService.NewPasswordHasher(
			c.config.HashAlgorithm,
			c.config.HashBcryptCost,
		)
	})
	return c.passwordHasher, c.initErrors["passwordHasher"]
}

// TokenService returns the HS256 token service.
func (c *Container) TokenService() (authService.TokenService, error) {
	c.tokenServiceInit.Do(func() {
		c.tokenService, c.initErrors["tokenService"] = authService.NewTokenService(
			[]byte(c.config.AuthTokenSecret),
			c.config.AuthTokenIssuer,
			c.config.AuthTokenMaxTTL,
		)
	})
	return c.tokenService, c.initErrors["tokenService"]
}

// GuardStore returns the attempt store shared by both guards.
// The memory backend is process local, the redis backend is shared by every instance.
func (c *Container) GuardStore() (guard.Store, error) {
	c.guardStoreInit.Do(func() {
		c.guardStore, c.initErrors["guardStore"] = c.initGuardStore()
	})
	return c.guardStore, c.initErrors["guardStore"]
}

// IPGuard returns the per client IP guard. Every admitted register or login
// attempt counts against it.
func (c *Container) IPGuard() (*guard.Guard, error) {
	c.ipGuardInit.Do(func() {
		c.ipGuard, c.initErrors["ipGuard"] = c.initGuard(guard.Policy{
			Name:        IPGuardName,
			MaxAttempts: c.config.RateLimitAuthMaxAttempts,
			Window:      c.config.RateLimitAuthWindow,
		})
	})
	return c.ipGuard, c.initErrors["ipGuard"]
}

// LockoutGuard returns the per account guard. Only failed logins count and a
// successful login clears the account.
func (c *Container) LockoutGuard() (*guard.Guard, error) {
	c.lockoutGuardInit.Do(func() {
		c.lockoutGuard, c.initErrors["lockoutGuard"] = c.initGuard(guard.Policy{
			Name:           LockoutGuardName,
			MaxAttempts:    c.config.LockoutMaxFailures,
			Window:         c.config.LockoutWindow,
			FailuresOnly:   true,
			ResetOnSuccess: true,
		})
	})
	return c.lockoutGuard, c.initErrors["lockoutGuard"]
}

// AuthUseCase returns the register/login/authenticate pipeline.
func (c *Container) AuthUseCase() (authUseCase.AuthUseCase, error) {
	c.authUseCaseInit.Do(func() {
		c.authUseCase, c.initErrors["authUseCase"] = c.initAuthUseCase()
	})
	return c.authUseCase, c.initErrors["authUseCase"]
}

// AuthHandler returns the HTTP handler for /v1/auth.
func (c *Container) AuthHandler() (*authHTTP.AuthHandler, error) {
	c.authHandlerInit.Do(func() {
		c.authHandler, c.initErrors["authHandler"] = c.initAuthHandler()
	})
	return c.authHandler, c.initErrors["authHandler"]
}

func (c *Container) initGuardStore() (guard.Store, error) {
	switch c.config.GuardBackend {
	case "redis":
		opts, err := redis.ParseURL(c.config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}

		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(c.ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}

		c.redisClient = client
		c.Logger().Info("guard store ready", slog.String("backend", "redis"))
		return guard.NewRedisStore(client, redisKeyPrefix), nil
	case "memory", "":
		store := guard.NewMemoryStore()
		if c.config.GuardCleanupInterval > 0 {
			store.StartCleanup(c.config.GuardCleanupInterval)
		}

		c.memoryStore = store
		c.Logger().Info("guard store ready", slog.String("backend", "memory"))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported guard backend: %s", c.config.GuardBackend)
	}
}

func (c *Container) initGuard(policy guard.Policy) (*guard.Guard, error) {
	store, err := c.GuardStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get guard store for %s: %w", policy.Name, err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for %s: %w", policy.Name, err)
	}

	return guard.New(
		policy,
		store,
		guard.WithLogger(c.Logger()),
		guard.WithMetrics(businessMetrics),
	)
}

func (c *Container) initAuthUseCase() (authUseCase.AuthUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for auth use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for auth use case: %w", err)
	}

	hasher, err := c.PasswordHasher()
	if err != nil {
		return nil, fmt.Errorf("failed to get password hasher for auth use case: %w", err)
	}

	tokenService, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for auth use case: %w", err)
	}

	ipGuard, err := c.IPGuard()
	if err != nil {
		return nil, err
	}

	lockoutGuard, err := c.LockoutGuard()
	if err != nil {
		return nil, err
	}

	useCase, err := authUseCase.NewAuthUseCase(
		c.config,
		txManager,
		userRepo,
		hasher,
		tokenService,
		ipGuard,
		lockoutGuard,
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth use case: %w", err)
	}
	if closer, ok := useCase.(io.Closer); ok {
		c.authUseCaseCloser = closer
	}

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
		}
		return authUseCase.NewAuthUseCaseWithMetrics(useCase, businessMetrics), nil
	}

	return useCase, nil
}

func (c *Container) initAuthHandler() (*authHTTP.AuthHandler, error) {
	authUC, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for auth handler: %w", err)
	}

	userUC, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for auth handler: %w", err)
	}

	return authHTTP.NewAuthHandler(authUC, userUC, c.Logger()), nil
}
