package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/auth/usecase/mocks"
	apperrors "github.com/betshield/betshield-api/internal/errors"
	"github.com/betshield/betshield-api/internal/httputil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProtectedRouter(useCase *mocks.MockAuthUseCase, exposeExpiry bool, handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	chain := append([]gin.HandlerFunc{AuthenticationMiddleware(useCase, exposeExpiry, testLogger())}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		principal, _ := GetPrincipal(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": principal.UserID.String()})
	})
	router.GET("/protected", chain...)
	return router
}

func doGet(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthenticationMiddleware(t *testing.T) {
	principal := &authDomain.Principal{UserID: uuid.Must(uuid.NewV7()), Role: authDomain.RoleUser}

	t.Run("valid token", func(t *testing.T) {
		useCase := &mocks.MockAuthUseCase{}
		useCase.On("Authenticate", mock.Anything, "good-token").Return(principal, nil).Once()

		w := doGet(newProtectedRouter(useCase, false), "Bearer good-token")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), principal.UserID.String())
		useCase.AssertExpectations(t)
	})

	t.Run("case-insensitive scheme", func(t *testing.T) {
		useCase := &mocks.MockAuthUseCase{}
		useCase.On("Authenticate", mock.Anything, "good-token").Return(principal, nil).Once()

		w := doGet(newProtectedRouter(useCase, false), "bEaReR good-token")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic dXNlcjpwYXNz",
		"empty token":    "Bearer    ",
		"no separator":   "Bearertoken",
	} {
		t.Run(name, func(t *testing.T) {
			useCase := &mocks.MockAuthUseCase{}

			w := doGet(newProtectedRouter(useCase, false), header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			useCase.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
		})
	}

	t.Run("expired and tampered tokens look the same by default", func(t *testing.T) {
		useCase := &mocks.MockAuthUseCase{}
		useCase.On("Authenticate", mock.Anything, "expired").Return(nil, authDomain.ErrTokenExpired).Once()
		useCase.On("Authenticate", mock.Anything, "tampered").
			Return(nil, apperrors.Wrap(authDomain.ErrInvalidToken, "signature is invalid")).
			Once()
		router := newProtectedRouter(useCase, false)

		expired := doGet(router, "Bearer expired")
		tampered := doGet(router, "Bearer tampered")

		assert.Equal(t, http.StatusUnauthorized, expired.Code)
		assert.Equal(t, http.StatusUnauthorized, tampered.Code)
		assert.Equal(t, expired.Body.String(), tampered.Body.String())
		assert.Empty(t, decodeError(t, expired).Code)
	})

	t.Run("expired token code when exposed", func(t *testing.T) {
		useCase := &mocks.MockAuthUseCase{}
		useCase.On("Authenticate", mock.Anything, "expired").Return(nil, authDomain.ErrTokenExpired).Once()

		w := doGet(newProtectedRouter(useCase, true), "Bearer expired")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "token_expired", decodeError(t, w).Code)
	})

	t.Run("unexpected error", func(t *testing.T) {
		useCase := &mocks.MockAuthUseCase{}
		useCase.On("Authenticate", mock.Anything, "token").Return(nil, context.DeadlineExceeded).Once()

		w := doGet(newProtectedRouter(useCase, false), "Bearer token")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     authDomain.Role
		required authDomain.Role
		expected int
	}{
		{"user on admin route", authDomain.RoleUser, authDomain.RoleAdmin, http.StatusForbidden},
		{"admin on admin route", authDomain.RoleAdmin, authDomain.RoleAdmin, http.StatusOK},
		{"admin on user route", authDomain.RoleAdmin, authDomain.RoleUser, http.StatusOK},
		{"user on user route", authDomain.RoleUser, authDomain.RoleUser, http.StatusOK},
		{"missing role on admin route", "", authDomain.RoleAdmin, http.StatusForbidden},
		{"missing role on user route", "", authDomain.RoleUser, http.StatusOK},
		{"unknown role on user route", "superuser", authDomain.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal := &authDomain.Principal{UserID: uuid.Must(uuid.NewV7()), Role: tt.role}
			useCase := &mocks.MockAuthUseCase{}
			useCase.On("Authenticate", mock.Anything, "token").Return(principal, nil).Once()

			router := newProtectedRouter(useCase, false, RequireRole(tt.required, testLogger()))
			w := doGet(router, "Bearer token")

			assert.Equal(t, tt.expected, w.Code)
		})
	}

	t.Run("without authentication", func(t *testing.T) {
		router := gin.New()
		router.GET("/admin", RequireRole(authDomain.RoleAdmin, testLogger()), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
}

func TestGetPrincipal_Empty(t *testing.T) {
	_, ok := GetPrincipal(context.Background())
	assert.False(t, ok)

	_, ok = GetPrincipal(WithPrincipal(context.Background(), nil))
	assert.False(t, ok)

	principal := &authDomain.Principal{UserID: uuid.Must(uuid.NewV7()), ExpiresAt: time.Now()}
	got, ok := GetPrincipal(WithPrincipal(context.Background(), principal))
	assert.True(t, ok)
	assert.Equal(t, principal, got)
}
