package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betshield/betshield-api/internal/auth/http/dto"
	authUseCase "github.com/betshield/betshield-api/internal/auth/usecase"
	apperrors "github.com/betshield/betshield-api/internal/errors"
	"github.com/betshield/betshield-api/internal/httputil"
	userDto "github.com/betshield/betshield-api/internal/user/http/dto"
	userUseCase "github.com/betshield/betshield-api/internal/user/usecase"
)

// AuthHandler handles the authentication endpoints.
type AuthHandler struct {
	authUseCase authUseCase.AuthUseCase
	userUseCase userUseCase.UseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(
	authUseCase authUseCase.AuthUseCase,
	userUseCase userUseCase.UseCase,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// RegisterHandler creates an account and returns a token for it.
// POST /v1/auth/register - Returns 201 Created.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	output, err := h.authUseCase.Register(c.Request.Context(), req.ToInput(c.ClientIP()))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapAuthOutputToResponse(output))
}

// LoginHandler exchanges credentials for a token.
// POST /v1/auth/login - Returns 200 OK.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	output, err := h.authUseCase.Login(c.Request.Context(), req.ToInput(c.ClientIP()))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuthOutputToResponse(output))
}

// MeHandler returns the identity behind the bearer token.
// GET /v1/auth/me - Requires authentication. Returns 200 OK.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	user, err := h.userUseCase.GetByID(c.Request.Context(), principal.UserID)
	if err != nil {
		// A valid token for a vanished identity is not a 404 for its bearer.
		if apperrors.Is(err, apperrors.ErrNotFound) {
			err = apperrors.ErrUnauthorized
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MeResponse{
		User:      userDto.MapUserToResponse(user),
		ExpiresAt: principal.ExpiresAt,
	})
}
