package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	apperrors "github.com/betshield/betshield-api/internal/errors"
)

// tokenClaims is the JWT payload.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// jwtTokenService signs HS256 tokens with a secret fixed at construction.
type jwtTokenService struct {
	secret []byte
	issuer string
	maxTTL time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customizes a TokenService.
type TokenOption func(*jwtTokenService)

// WithTokenClock overrides the clock used to stamp and check tokens.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *jwtTokenService) {
		s.now = now
	}
}

// NewTokenService creates an HS256 TokenService. The secret is copied and never
// re-read, so later changes to the caller's slice or the environment have no effect.
func NewTokenService(secret []byte, issuer string, maxTTL time.Duration, opts ...TokenOption) (TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if maxTTL <= 0 {
		return nil, errors.New("token max ttl must be positive")
	}

	s := &jwtTokenService{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		maxTTL: maxTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(issuer))
	}
	s.parser = jwt.NewParser(parserOpts...)

	return s, nil
}

// Issue signs a token for subject.
func (s *jwtTokenService) Issue(
	subject uuid.UUID,
	role authDomain.Role,
	ttl time.Duration,
) (*authDomain.IssuedToken, error) {
	if ttl <= 0 || ttl > s.maxTTL {
		return nil, authDomain.ErrInvalidTokenTTL
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	claims := tokenClaims{
		Role: role.OrDefault().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign token")
	}

	return &authDomain.IssuedToken{Value: signed, ExpiresAt: claims.ExpiresAt.UTC()}, nil
}

// Verify parses and validates token. The signature is checked before any claim.
func (s *jwtTokenService) Verify(token string) (*authDomain.Claims, error) {
	if token == "" || strings.Count(token, ".") != 2 {
		return nil, authDomain.ErrInvalidToken
	}

	claims := &tokenClaims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, authDomain.ErrTokenExpired
		}
		return nil, apperrors.Wrap(authDomain.ErrInvalidToken, err.Error())
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.Wrap(authDomain.ErrInvalidToken, "invalid subject")
	}

	result := &authDomain.Claims{
		Subject:   subject,
		Role:      authDomain.Role(claims.Role).OrDefault(),
		ExpiresAt: claims.ExpiresAt.UTC(),
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.UTC()
	}
	return result, nil
}
