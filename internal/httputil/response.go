// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/betshield/betshield-api/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// HandleErrorGin maps domain errors to HTTP status codes and writes a JSON response.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var errorResponse ErrorResponse
	logLevel := slog.LevelWarn

	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		errorResponse = ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		}

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		errorResponse = ErrorResponse{
			Error:   "conflict",
			Message: "A conflict occurred with existing data",
		}

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errorResponse = ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		}

	case apperrors.Is(err, apperrors.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid email or password",
		}

	case apperrors.Is(err, apperrors.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication is required",
		}

	case apperrors.Is(err, apperrors.ErrForbidden):
		statusCode = http.StatusForbidden
		errorResponse = ErrorResponse{
			Error:   "forbidden",
			Message: "You don't have permission to access this resource",
		}

	case apperrors.Is(err, apperrors.ErrTooManyRequests):
		statusCode = http.StatusTooManyRequests
		errorResponse = ErrorResponse{
			Error:   "too_many_requests",
			Message: "Too many attempts, please try again later",
		}
		var tooMany *apperrors.TooManyRequestsError
		retryAfter := time.Second
		if apperrors.As(err, &tooMany) && tooMany.RetryAfter > 0 {
			retryAfter = tooMany.RetryAfter
		}
		c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds(retryAfter)))

	default:
		// Internal details stay in the logs
		statusCode = http.StatusInternalServerError
		errorResponse = ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		}
		logLevel = slog.LevelError
	}

	if logger != nil {
		logger.Log(c.Request.Context(), logLevel, "request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleErrorWithCodeGin behaves like HandleErrorGin but sets a machine readable code
// on the response body. Used to surface distinctions such as an expired token.
func HandleErrorWithCodeGin(c *gin.Context, err error, code string, logger *slog.Logger) {
	if err == nil {
		return
	}
	if !apperrors.Is(err, apperrors.ErrUnauthorized) {
		HandleErrorGin(c, err, logger)
		return
	}

	if logger != nil {
		logger.Warn("request failed",
			slog.Int("status_code", http.StatusUnauthorized),
			slog.String("error_code", code),
			slog.Any("error", err),
		)
	}

	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: "Authentication is required",
		Code:    code,
	})
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	}

	c.JSON(http.StatusBadRequest, errorResponse)
}

// RetryAfterSeconds converts a wait duration into a Retry-After header value,
// rounding up and never returning less than one second.
func RetryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
