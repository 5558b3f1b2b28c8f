package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	authUseCase "github.com/betshield/betshield-api/internal/auth/usecase"
	apperrors "github.com/betshield/betshield-api/internal/errors"
	"github.com/betshield/betshield-api/internal/httputil"
)

// tokenExpiredCode is the response code used for expired tokens when expiry is exposed.
const tokenExpiredCode = "token_expired"

// AuthenticationMiddleware verifies the bearer token of protected requests.
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer").
// A missing or malformed header is rejected with 401 before the token is looked at.
// Every verification failure answers the same 401 unless exposeExpiry is set,
// in which case expired tokens carry the "token_expired" code.
// On success the principal is stored in the request context (see GetPrincipal).
func AuthenticationMiddleware(
	authUseCase authUseCase.AuthUseCase,
	exposeExpiry bool,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, authDomain.ErrMissingToken, logger)
			c.Abort()
			return
		}

		principal, err := authUseCase.Authenticate(c.Request.Context(), token)
		if err != nil {
			if exposeExpiry && apperrors.Is(err, authDomain.ErrTokenExpired) {
				httputil.HandleErrorWithCodeGin(c, err, tokenExpiredCode, logger)
			} else {
				httputil.HandleErrorGin(c, genericAuthError(err), logger)
			}
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))

		logger.Debug("authentication successful",
			slog.String("user_id", principal.UserID.String()),
			slog.String("role", principal.Role.String()))

		c.Next()
	}
}

// RequireRole applies the role gate to a route. It must run after AuthenticationMiddleware.
//
// Error handling:
//   - No principal in context → 401 Unauthorized
//   - Role does not satisfy the requirement → 403 Forbidden
func RequireRole(required authDomain.Role, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if !ok {
			logger.Debug("authorization failed: no principal in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if err := authDomain.Authorize(required, principal.Role); err != nil {
			logger.Debug("authorization failed: insufficient role",
				slog.String("user_id", principal.UserID.String()),
				slog.String("role", principal.Role.String()),
				slog.String("required", required.String()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	const bearerPrefix = "bearer "
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// genericAuthError collapses token failures into ErrInvalidToken so the response
// never tells which check failed. Other errors pass through.
func genericAuthError(err error) error {
	if apperrors.Is(err, authDomain.ErrInvalidToken) {
		return authDomain.ErrInvalidToken
	}
	return err
}
