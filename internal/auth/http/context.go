// Package http provides the authentication endpoints and the middleware protecting every other route.
package http

import (
	"context"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
)

// principalKey is a context key type for storing the verified principal.
type principalKey struct{}

// WithPrincipal stores the verified principal in the context.
// Called by AuthenticationMiddleware after the token verifies.
func WithPrincipal(ctx context.Context, principal *authDomain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// GetPrincipal retrieves the verified principal from the context.
// Returns (principal, true) if present, or (nil, false) otherwise.
func GetPrincipal(ctx context.Context) (*authDomain.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(*authDomain.Principal)
	return principal, ok && principal != nil
}
