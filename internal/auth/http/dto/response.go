package dto

import (
	"time"

	authUseCase "github.com/betshield/betshield-api/internal/auth/usecase"
	userDto "github.com/betshield/betshield-api/internal/user/http/dto"
)

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string               `json:"token"`
	TokenType string               `json:"token_type"`
	ExpiresAt time.Time            `json:"expires_at"`
	User      userDto.UserResponse `json:"user"`
}

// MapAuthOutputToResponse converts a use case output to an API response.
func MapAuthOutputToResponse(output *authUseCase.AuthOutput) AuthResponse {
	return AuthResponse{
		Token:     output.Token.Value,
		TokenType: "Bearer",
		ExpiresAt: output.Token.ExpiresAt,
		User:      userDto.MapUserToResponse(output.User),
	}
}

// MeResponse is returned by GET /v1/auth/me.
type MeResponse struct {
	User      userDto.UserResponse `json:"user"`
	ExpiresAt time.Time            `json:"token_expires_at"`
}
