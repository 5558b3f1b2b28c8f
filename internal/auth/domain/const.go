// Package domain defines the authentication and authorization domain models:
// roles and the role gate, verified principals, token claims and abuse guard attempts.
package domain

import "strings"

// Role is the authorization label carried by an identity and its tokens.
type Role string

const (
	// RoleUser is the default role of every registered identity.
	RoleUser Role = "user"

	// RoleAdmin satisfies every role requirement.
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// OrDefault returns RoleUser for an empty role.
func (r Role) OrDefault() Role {
	if r == "" {
		return RoleUser
	}
	return r
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a textual role. An empty value yields RoleUser.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s))).OrDefault()
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Authorize is the role gate. It returns nil when the resolved role satisfies
// the required one and an error wrapping ErrForbidden otherwise.
// Admin satisfies every requirement, a missing role counts as user and
// unknown roles satisfy nothing.
func Authorize(required, resolved Role) error {
	resolved = resolved.OrDefault()
	if !resolved.IsValid() {
		return ErrInsufficientRole
	}
	if resolved == RoleAdmin {
		return nil
	}
	if resolved == required.OrDefault() {
		return nil
	}
	return ErrInsufficientRole
}
