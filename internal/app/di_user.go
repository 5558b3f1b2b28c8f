package app

import (
	"fmt"

	authUseCase "github.com/betshield/betshield-api/internal/auth/usecase"
	userHTTP "github.com/betshield/betshield-api/internal/user/http"
	userRepository "github.com/betshield/betshield-api/internal/user/repository"
	userUseCase "github.com/betshield/betshield-api/internal/user/usecase"
)

// userStore is the repository surface needed by both the user and auth use cases.
type userStore interface {
	userUseCase.UserRepository
	authUseCase.UserRepository
}

// UserRepository returns the user repository for the configured driver.
func (c *Container) UserRepository() (userStore, error) {
	c.userRepoInit.Do(func() {
		c.userRepo, c.initErrors["userRepo"] = c.initUserRepository()
	})
	return c.userRepo, c.initErrors["userRepo"]
}

// UserUseCase returns the user use case.
func (c *Container) UserUseCase() (userUseCase.UseCase, error) {
	c.userUseCaseInit.Do(func() {
		c.userUseCase, c.initErrors["userUseCase"] = c.initUserUseCase()
	})
	return c.userUseCase, c.initErrors["userUseCase"]
}

// UserHandler returns the HTTP handler for /v1/admin/users.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	c.userHandlerInit.Do(func() {
		c.userHandler, c.initErrors["userHandler"] = c.initUserHandler()
	})
	return c.userHandler, c.initErrors["userHandler"]
}

func (c *Container) initUserRepository() (userStore, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return userRepository.NewPostgreSQLUserRepository(db), nil
	case "mysql":
		return userRepository.NewMySQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initUserUseCase() (userUseCase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	hasher, err := c.PasswordHasher()
	if err != nil {
		return nil, fmt.Errorf("failed to get password hasher for user use case: %w", err)
	}

	useCase := userUseCase.NewUserUseCase(txManager, userRepo, hasher, c.config.PasswordMinLength)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
		}
		return userUseCase.NewUserUseCaseWithMetrics(useCase, businessMetrics), nil
	}

	return useCase, nil
}

func (c *Container) initUserHandler() (*userHTTP.UserHandler, error) {
	userUC, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for user handler: %w", err)
	}
	return userHTTP.NewUserHandler(userUC, c.Logger()), nil
}
