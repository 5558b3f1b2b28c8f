// Package service provides the credential primitives of the auth pipeline:
// password hashing and signed, self-contained access tokens.
package service

import (
	"time"

	"github.com/google/uuid"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
)

// PasswordHasher turns passwords into salted, deliberately slow hashes.
type PasswordHasher interface {
	// Hash returns a self-describing hash (algorithm, parameters and salt
	// are embedded). Inputs above the algorithm ceiling fail with
	// ErrPasswordTooLong instead of being truncated.
	Hash(plain string) (string, error)

	// Verify reports whether plain matches hashed. It never errors: malformed
	// or unknown hashes simply do not match. Comparison is constant time.
	Verify(plain, hashed string) bool
}

// TokenService issues and verifies signed tokens carrying a subject and a role.
type TokenService interface {
	// Issue signs a token for subject valid for ttl, which must be in (0, max].
	Issue(subject uuid.UUID, role authDomain.Role, ttl time.Duration) (*authDomain.IssuedToken, error)

	// Verify checks shape, signature, algorithm, issuer and expiry.
	// Every failure wraps ErrInvalidToken. Expiry additionally wraps ErrTokenExpired.
	Verify(token string) (*authDomain.Claims, error)
}
