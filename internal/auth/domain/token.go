package domain

import (
	"time"

	"github.com/google/uuid"
)

// Claims are the verified contents of a token.
type Claims struct {
	Subject   uuid.UUID
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is a freshly signed token and its expiry.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Principal is the verified identity attached to a request.
type Principal struct {
	UserID    uuid.UUID
	Role      Role
	ExpiresAt time.Time
}

// PrincipalFromClaims builds the request principal from verified claims.
func PrincipalFromClaims(c *Claims) *Principal {
	return &Principal{UserID: c.Subject, Role: c.Role.OrDefault(), ExpiresAt: c.ExpiresAt}
}
