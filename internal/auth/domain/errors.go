package domain

import (
	"github.com/betshield/betshield-api/internal/errors"
)

// Authentication and authorization errors.
var (
	// ErrInvalidToken covers every token verification failure: malformed,
	// bad signature, wrong algorithm or issuer, missing claims, expired.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrTokenExpired is the expiry case of ErrInvalidToken. Callers that do not
	// need the distinction only ever check ErrInvalidToken.
	ErrTokenExpired = errors.Wrap(ErrInvalidToken, "token expired")

	// ErrMissingToken indicates a protected request without a bearer token.
	ErrMissingToken = errors.Wrap(errors.ErrUnauthorized, "missing bearer token")

	// ErrInvalidTokenTTL indicates a token lifetime outside (0, max].
	ErrInvalidTokenTTL = errors.New("token ttl must be positive and not exceed the configured maximum")

	// ErrInsufficientRole indicates the resolved role does not satisfy the required one.
	ErrInsufficientRole = errors.Wrap(errors.ErrForbidden, "insufficient role")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "role must be one of: user, admin")

	// ErrPasswordTooLong indicates a password above the hasher input ceiling.
	ErrPasswordTooLong = errors.Wrap(errors.ErrInvalidInput, "password exceeds maximum length")
)
