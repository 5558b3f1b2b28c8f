// Package mocks provides mock implementations of the user use case and its repository.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/user/domain"
	"github.com/betshield/betshield-api/internal/user/usecase"
)

// MockUserRepository is a mock user repository. It also satisfies the
// repository contract of the auth use case.
type MockUserRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID mocks the GetByID method.
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// GetByEmail mocks the GetByEmail method.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// List mocks the List method.
func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

// UpdateRole mocks the UpdateRole method.
func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role authDomain.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

// UpdateFailureState mocks the UpdateFailureState method.
func (m *MockUserRepository) UpdateFailureState(
	ctx context.Context,
	id uuid.UUID,
	failedAttempts int,
	lastFailedAt *time.Time,
) error {
	args := m.Called(ctx, id, failedAttempts, lastFailedAt)
	return args.Error(0)
}

// MockTxManager runs the callback inline unless an error is configured.
type MockTxManager struct {
	mock.Mock
}

// WithTx mocks the WithTx method.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

// MockUseCase is a mock implementation of usecase.UseCase.
type MockUseCase struct {
	mock.Mock
}

var _ usecase.UseCase = (*MockUseCase)(nil)

// Create mocks the Create method.
func (m *MockUseCase) Create(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// GetByID mocks the GetByID method.
func (m *MockUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// GetByEmail mocks the GetByEmail method.
func (m *MockUseCase) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// List mocks the List method.
func (m *MockUseCase) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

// SetRole mocks the SetRole method.
func (m *MockUseCase) SetRole(ctx context.Context, email string, role authDomain.Role) (*domain.User, error) {
	args := m.Called(ctx, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
