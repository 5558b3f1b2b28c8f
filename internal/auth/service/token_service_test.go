package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	apperrors "github.com/betshield/betshield-api/internal/errors"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestTokenService(t *testing.T, clock *fakeClock) TokenService {
	t.Helper()
	svc, err := NewTokenService(testSecret, "betshield", 24*time.Hour, WithTokenClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	t.Run("empty secret", func(t *testing.T) {
		_, err := NewTokenService(nil, "betshield", time.Hour)
		assert.Error(t, err)
	})

	t.Run("non positive max ttl", func(t *testing.T) {
		_, err := NewTokenService(testSecret, "betshield", 0)
		assert.Error(t, err)
	})

	t.Run("secret is copied", func(t *testing.T) {
		clock := newClock()
		secret := append([]byte(nil), testSecret...)
		svc, err := NewTokenService(secret, "betshield", time.Hour, WithTokenClock(clock.Now))
		require.NoError(t, err)

		issued, err := svc.Issue(uuid.Must(uuid.NewV7()), authDomain.RoleUser, time.Minute)
		require.NoError(t, err)

		secret[0] = 'X'
		_, err = svc.Verify(issued.Value)
		assert.NoError(t, err)
	})
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	clock := newClock()
	svc := newTestTokenService(t, clock)
	subject := uuid.Must(uuid.NewV7())

	issued, err := svc.Issue(subject, authDomain.RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(issued.Value, "."))
	assert.True(t, clock.now.Add(time.Hour).Equal(issued.ExpiresAt))

	claims, err := svc.Verify(issued.Value)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, authDomain.RoleAdmin, claims.Role)
	assert.True(t, clock.now.Equal(claims.IssuedAt))
	assert.True(t, issued.ExpiresAt.Equal(claims.ExpiresAt))
}

func TestTokenService_IssueDefaultsRole(t *testing.T) {
	clock := newClock()
	svc := newTestTokenService(t, clock)

	issued, err := svc.Issue(uuid.Must(uuid.NewV7()), "", time.Hour)
	require.NoError(t, err)

	claims, err := svc.Verify(issued.Value)
	require.NoError(t, err)
	assert.Equal(t, authDomain.RoleUser, claims.Role)
}

func TestTokenService_IssueTTLBounds(t *testing.T) {
	svc := newTestTokenService(t, newClock())
	subject := uuid.Must(uuid.NewV7())

	for _, ttl := range []time.Duration{0, -time.Second, 24*time.Hour + time.Second} {
		_, err := svc.Issue(subject, authDomain.RoleUser, ttl)
		assert.ErrorIs(t, err, authDomain.ErrInvalidTokenTTL, ttl.String())
	}

	_, err := svc.Issue(subject, authDomain.RoleUser, 24*time.Hour)
	assert.NoError(t, err)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := newClock()
	svc := newTestTokenService(t, clock)

	issued, err := svc.Issue(uuid.Must(uuid.NewV7()), authDomain.RoleUser, time.Hour)
	require.NoError(t, err)

	clock.Advance(time.Hour - time.Second)
	_, err = svc.Verify(issued.Value)
	assert.NoError(t, err, "valid strictly before exp")

	clock.Advance(time.Second)
	_, err = svc.Verify(issued.Value)
	require.Error(t, err, "invalid at exp")
	assert.ErrorIs(t, err, authDomain.ErrTokenExpired)
	assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestTokenService_VerifyRejects(t *testing.T) {
	clock := newClock()
	svc := newTestTokenService(t, clock)
	subject := uuid.Must(uuid.NewV7())

	issued, err := svc.Issue(subject, authDomain.RoleUser, time.Hour)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	validClaims := func() tokenClaims {
		return tokenClaims{
			Role: "user",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   subject.String(),
				Issuer:    "betshield",
				IssuedAt:  jwt.NewNumericDate(clock.now),
				ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
			},
		}
	}

	parts := strings.Split(issued.Value, ".")
	tamperedPayload := validClaims()
	tamperedPayload.Role = "admin"
	forged := strings.Split(sign(jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), tamperedPayload), ".")

	noExp := validClaims()
	noExp.ExpiresAt = nil
	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"
	badSubject := validClaims()
	badSubject.Subject = "not-a-uuid"
	expiredWrongKey := validClaims()
	expiredWrongKey.ExpiresAt = jwt.NewNumericDate(clock.now.Add(-time.Minute))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not three parts", "abc.def"},
		{"garbage", "a.b.c"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("wrong-secret-wrong-secret-wrong!"), validClaims())},
		{"payload swapped", parts[0] + "." + forged[1] + "." + parts[2]},
		{"signature stripped", parts[0] + "." + parts[1] + "."},
		{"alg none", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims())},
		{"hs512 not accepted", sign(jwt.SigningMethodHS512, testSecret, validClaims())},
		{"missing exp", sign(jwt.SigningMethodHS256, testSecret, noExp)},
		{"wrong issuer", sign(jwt.SigningMethodHS256, testSecret, wrongIssuer)},
		{"bad subject", sign(jwt.SigningMethodHS256, testSecret, badSubject)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Verify(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
			assert.NotErrorIs(t, err, authDomain.ErrTokenExpired)
		})
	}

	t.Run("signature checked before expiry", func(t *testing.T) {
		token := sign(jwt.SigningMethodHS256, []byte("wrong-secret-wrong-secret-wrong!"), expiredWrongKey)
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
		assert.NotErrorIs(t, err, authDomain.ErrTokenExpired)
	})
}
