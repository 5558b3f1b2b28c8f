package usecase

import (
	"context"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	authService "github.com/betshield/betshield-api/internal/auth/service"
	"github.com/betshield/betshield-api/internal/database"
	apperrors "github.com/betshield/betshield-api/internal/errors"
	"github.com/betshield/betshield-api/internal/user/domain"
	appValidation "github.com/betshield/betshield-api/internal/validation"
)

type userUseCase struct {
	txManager         database.TxManager
	userRepo          UserRepository
	passwordHasher    authService.PasswordHasher
	passwordMinLength int
}

// NewUserUseCase creates a new user UseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	passwordHasher authService.PasswordHasher,
	passwordMinLength int,
) UseCase {
	return &userUseCase{
		txManager:         txManager,
		userRepo:          userRepo,
		passwordHasher:    passwordHasher,
		passwordMinLength: passwordMinLength,
	}
}

func (u *userUseCase) validateCreateUserInput(input *CreateUserInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.Email,
			validation.Length(3, 320),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			appValidation.PasswordStrength{MinLength: u.passwordMinLength},
		),
		validation.Field(&input.Role,
			validation.By(func(value interface{}) error {
				role, _ := value.(authDomain.Role)
				if !role.OrDefault().IsValid() {
					return validation.NewError("validation_role", "must be user or admin")
				}
				return nil
			}),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Create validates, hashes and stores a new account.
func (u *userUseCase) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	input.Name = appValidation.SanitizeName(input.Name)
	input.Email = appValidation.NormalizeEmail(input.Email)
	if err := u.validateCreateUserInput(&input); err != nil {
		return nil, err
	}

	passwordHash, err := u.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         input.Role.OrDefault(),
	}

	if err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.userRepo.Create(ctx, user)
	}); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (u *userUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email.
func (u *userUseCase) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.userRepo.GetByEmail(ctx, appValidation.NormalizeEmail(email))
}

// List returns a page of users.
func (u *userUseCase) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	if offset < 0 || limit < 1 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "offset must be >= 0 and limit must be >= 1")
	}
	return u.userRepo.List(ctx, offset, limit)
}

// SetRole changes the role of an account.
func (u *userUseCase) SetRole(ctx context.Context, email string, role authDomain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, authDomain.ErrInvalidRole
	}

	var user *domain.User
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		found, err := u.userRepo.GetByEmail(ctx, appValidation.NormalizeEmail(email))
		if err != nil {
			return err
		}
		if err := u.userRepo.UpdateRole(ctx, found.ID, role); err != nil {
			return err
		}
		found.Role = role
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
