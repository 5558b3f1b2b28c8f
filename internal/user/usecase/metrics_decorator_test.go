package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/betshield/betshield-api/internal/user/domain"
	"github.com/betshield/betshield-api/internal/user/usecase"
	"github.com/betshield/betshield-api/internal/user/usecase/mocks"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordGuardDecision(ctx context.Context, guard, decision string) {
	m.Called(ctx, guard, decision)
}

func TestUserUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())

	t.Run("GetByID success", func(t *testing.T) {
		mockNext := &mocks.MockUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewUserUseCaseWithMetrics(mockNext, mockMetrics)
		user := &domain.User{ID: id}

		mockNext.On("GetByID", ctx, id).Return(user, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "user", "get", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "user", "get", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		res, err := uc.GetByID(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, user, res)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("List error", func(t *testing.T) {
		mockNext := &mocks.MockUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewUserUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("List", ctx, 0, 10).Return(nil, errors.New("boom")).Once()
		mockMetrics.On("RecordOperation", ctx, "user", "list", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "user", "list", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		res, err := uc.List(ctx, 0, 10)
		assert.Error(t, err)
		assert.Nil(t, res)
		mockMetrics.AssertExpectations(t)
	})
}
