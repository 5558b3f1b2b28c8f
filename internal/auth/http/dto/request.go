// Package dto provides data transfer objects for the authentication endpoints.
package dto

import (
	authUseCase "github.com/betshield/betshield-api/internal/auth/usecase"
)

// RegisterRequest is the body of POST /v1/auth/register.
// Field rules are enforced by the auth pipeline so that validation and
// abuse guard ordering stay in one place.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToInput converts the request into a use case input.
func (r RegisterRequest) ToInput(clientIP string) *authUseCase.RegisterInput {
	return &authUseCase.RegisterInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		ClientIP: clientIP,
	}
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToInput converts the request into a use case input.
func (r LoginRequest) ToInput(clientIP string) *authUseCase.LoginInput {
	return &authUseCase.LoginInput{
		Email:    r.Email,
		Password: r.Password,
		ClientIP: clientIP,
	}
}
