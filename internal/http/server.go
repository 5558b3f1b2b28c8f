// Package http wires the gin router and runs the public and metrics HTTP servers.
package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	authHTTP "github.com/betshield/betshield-api/internal/auth/http"
	authUseCase "github.com/betshield/betshield-api/internal/auth/usecase"
	"github.com/betshield/betshield-api/internal/config"
	"github.com/betshield/betshield-api/internal/metrics"
	userHTTP "github.com/betshield/betshield-api/internal/user/http"
)

const readinessTimeout = 2 * time.Second

// Server is the public API server.
type Server struct {
	db     *sql.DB
	server *http.Server
	logger *slog.Logger
	router *gin.Engine
}

// NewServer creates a Server bound to host:port. SetupRouter must be called before Start.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// SetupRouter builds the route table.
//
// Routes:
//
//	GET  /health
//	GET  /ready
//	POST /v1/auth/register
//	POST /v1/auth/login
//	GET  /v1/auth/me              (authenticated)
//	GET  /v1/admin/users          (authenticated, admin)
//	GET  /v1/admin/users/:id      (authenticated, admin)
//
// ctx bounds the background cleanup of the per principal rate limiters.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	authHandler *authHTTP.AuthHandler,
	userHandler *userHTTP.UserHandler,
	authUC authUseCase.AuthUseCase,
	metricsProvider *metrics.Provider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	if err := router.SetTrustedProxies(splitList(cfg.ServerTrustedProxies)); err != nil {
		s.logger.Warn("invalid trusted proxies, ignoring forwarded headers", slog.Any("error", err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), metricsProvider.Namespace()))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	authenticated := []gin.HandlerFunc{
		authHTTP.AuthenticationMiddleware(authUC, cfg.AuthExposeTokenExpiry, s.logger),
	}
	if cfg.RateLimitEnabled {
		authenticated = append(authenticated, authHTTP.RateLimitMiddleware(
			ctx,
			cfg.RateLimitRequestsPerSec,
			cfg.RateLimitBurst,
			s.logger,
		))
	}

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.RegisterHandler)
		auth.POST("/login", authHandler.LoginHandler)
		auth.GET("/me", append(authenticated, authHandler.MeHandler)...)
	}

	admin := v1.Group("/admin")
	admin.Use(authenticated...)
	admin.Use(authHTTP.RequireRole(authDomain.RoleAdmin, s.logger))
	{
		admin.GET("/users", userHandler.ListHandler)
		admin.GET("/users/:id", userHandler.GetHandler)
	}

	s.router = router
}

// GetHandler returns the configured router, or nil before SetupRouter.
func (s *Server) GetHandler() http.Handler {
	if s.router == nil {
		return nil
	}
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return errors.New("router not configured: call SetupRouter first")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only when the database answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}

// splitList splits a comma-separated setting, dropping empty items.
// An empty input yields nil.
func splitList(raw string) []string {
	var items []string
	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
