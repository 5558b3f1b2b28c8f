// Package mocks provides mock implementations of the auth use case interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/auth/guard"
	"github.com/betshield/betshield-api/internal/auth/usecase"
)

// MockAuthUseCase is a mock implementation of usecase.AuthUseCase.
type MockAuthUseCase struct {
	mock.Mock
}

var _ usecase.AuthUseCase = (*MockAuthUseCase)(nil)

// Register mocks the Register method.
func (m *MockAuthUseCase) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AuthOutput), args.Error(1)
}

// Login mocks the Login method.
func (m *MockAuthUseCase) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AuthOutput), args.Error(1)
}

// Authenticate mocks the Authenticate method.
func (m *MockAuthUseCase) Authenticate(ctx context.Context, token string) (*authDomain.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Principal), args.Error(1)
}

// MockGuard is a mock implementation of usecase.Guard.
type MockGuard struct {
	mock.Mock
	GuardName string
}

var _ usecase.Guard = (*MockGuard)(nil)

// Name returns GuardName.
func (m *MockGuard) Name() string {
	return m.GuardName
}

// CheckAdmission mocks the CheckAdmission method.
func (m *MockGuard) CheckAdmission(ctx context.Context, clientKey string) (guard.Decision, error) {
	args := m.Called(ctx, clientKey)
	return args.Get(0).(guard.Decision), args.Error(1)
}

// RecordOutcome mocks the RecordOutcome method.
func (m *MockGuard) RecordOutcome(ctx context.Context, clientKey string, outcome authDomain.Outcome) error {
	args := m.Called(ctx, clientKey, outcome)
	return args.Error(0)
}

// Release mocks the Release method.
func (m *MockGuard) Release(ctx context.Context, clientKey string) error {
	args := m.Called(ctx, clientKey)
	return args.Error(0)
}
