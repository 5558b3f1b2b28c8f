// Package http provides the administrative HTTP handlers for user accounts.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/betshield/betshield-api/internal/errors"
	"github.com/betshield/betshield-api/internal/httputil"
	"github.com/betshield/betshield-api/internal/user/http/dto"
	"github.com/betshield/betshield-api/internal/user/usecase"
)

// UserHandler serves the admin user endpoints. Routes are expected to be
// mounted behind authentication and an admin role gate.
type UserHandler struct {
	userUseCase usecase.UseCase
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userUseCase usecase.UseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// GetHandler retrieves a user by ID.
// GET /v1/admin/users/:id - Returns 200 OK.
func (h *UserHandler) GetHandler(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c,
			apperrors.Wrap(apperrors.ErrInvalidInput, "invalid user ID format: must be a valid UUID"),
			h.logger)
		return
	}

	user, err := h.userUseCase.GetByID(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}

// ListHandler returns a page of users, newest first.
// GET /v1/admin/users?offset=0&limit=20 - Returns 200 OK.
func (h *UserHandler) ListHandler(c *gin.Context) {
	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	users, err := h.userUseCase.List(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUsersToListResponse(users, page.Offset, page.Limit))
}
