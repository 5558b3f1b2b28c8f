// Package app provides the dependency injection container that assembles the application.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	authHTTP "github.com/betshield/betshield-api/internal/auth/http"
	"github.com/betshield/betshield-api/internal/auth/guard"
	authService "github.com/betshield/betshield-api/internal/auth/service"
	authUseCase "github.com/betshield/betshield-api/internal/auth/usecase"
	"github.com/betshield/betshield-api/internal/config"
	"github.com/betshield/betshield-api/internal/database"
	"github.com/betshield/betshield-api/internal/http"
	"github.com/betshield/betshield-api/internal/metrics"
	userHTTP "github.com/betshield/betshield-api/internal/user/http"
	userUseCase "github.com/betshield/betshield-api/internal/user/usecase"
)

// Container holds all application dependencies.
// Components are created lazily on first access and cached.
type Container struct {
	config *config.Config

	// ctx scopes background goroutines owned by the container.
	ctx    context.Context
	cancel context.CancelFunc

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Auth
	passwordHasher authService.PasswordHasher
	tokenService   authService.TokenService
	redisClient    *redis.Client
	memoryStore    *guard.MemoryStore
	guardStore     guard.Store
	ipGuard        *guard.Guard
	lockoutGuard   *guard.Guard
	authUseCase    authUseCase.AuthUseCase
	authHandler    *authHTTP.AuthHandler

	// authUseCaseCloser drains background writes of the auth use case.
	authUseCaseCloser io.Closer

	// Users
	userRepo    userStore
	userUseCase userUseCase.UseCase
	userHandler *userHTTP.UserHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	passwordHasherInit  sync.Once
	tokenServiceInit    sync.Once
	guardStoreInit      sync.Once
	ipGuardInit         sync.Once
	lockoutGuardInit    sync.Once
	authUseCaseInit     sync.Once
	authHandlerInit     sync.Once
	userRepoInit        sync.Once
	userUseCaseInit     sync.Once
	userHandlerInit     sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a container for cfg.
func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		config:     cfg,
		ctx:        ctx,
		cancel:     cancel,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the JSON logger configured from LOG_LEVEL.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		c.db, c.initErrors["db"] = c.initDB()
	})
	return c.db, c.initErrors["db"]
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		c.txManager, c.initErrors["txManager"] = c.initTxManager()
	})
	return c.txManager, c.initErrors["txManager"]
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, c.initErrors["metricsProvider"] = metrics.NewProvider(c.config.MetricsNamespace)
	})
	return c.metricsProvider, c.initErrors["metricsProvider"]
}

// BusinessMetrics returns the business metrics recorder.
// A no-op recorder is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, c.initErrors["businessMetrics"] = c.initBusinessMetrics()
	})
	return c.businessMetrics, c.initErrors["businessMetrics"]
}

// HTTPServer returns the public API server with its router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		c.httpServer, c.initErrors["httpServer"] = c.initHTTPServer()
	})
	return c.httpServer, c.initErrors["httpServer"]
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		c.metricsServer, c.initErrors["metricsServer"] = c.initMetricsServer()
	})
	return c.metricsServer, c.initErrors["metricsServer"]
}

// Shutdown stops background work and releases every initialized resource.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()

	var errs []error

	// Pending failure state writes need the database, so they drain first.
	if c.authUseCaseCloser != nil {
		if err := c.authUseCaseCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("auth use case close: %w", err))
		}
	}

	if c.memoryStore != nil {
		if err := c.memoryStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("guard store close: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (c *Container) initLogger() *slog.Logger {
	var level slog.Level
	switch c.config.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(c.ctx, database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	authHandler, err := c.AuthHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth handler for http server: %w", err)
	}

	userHandler, err := c.UserHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get user handler for http server: %w", err)
	}

	authUC, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(c.ctx, c.config, authHandler, userHandler, authUC, provider)

	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
