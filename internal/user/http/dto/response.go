// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	"time"

	"github.com/betshield/betshield-api/internal/user/domain"
)

// UserResponse is the public representation of an identity. The password hash
// and failure telemetry never leave the server.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// MapUserToResponse converts a domain user to an API response.
func MapUserToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role.OrDefault().String(),
		CreatedAt: user.CreatedAt,
	}
}

// ListUsersResponse is a page of users.
type ListUsersResponse struct {
	Data   []UserResponse `json:"data"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// MapUsersToListResponse converts a page of domain users to an API response.
func MapUsersToListResponse(users []*domain.User, offset, limit int) ListUsersResponse {
	data := make([]UserResponse, 0, len(users))
	for _, user := range users {
		data = append(data, MapUserToResponse(user))
	}
	return ListUsersResponse{Data: data, Offset: offset, Limit: limit}
}
