package commands

import (
	"context"
	"fmt"
	"log/slog"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	userUseCase "github.com/betshield/betshield-api/internal/user/usecase"
)

// RunSetUserRole promotes or demotes an account. Tokens already issued keep
// the role they were signed with until they expire.
func RunSetUserRole(
	ctx context.Context,
	useCase userUseCase.UseCase,
	logger *slog.Logger,
	email string,
	role string,
	format string,
	io IOTuple,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	parsedRole, err := authDomain.ParseRole(role)
	if err != nil {
		return fmt.Errorf("invalid role %q: %w", role, err)
	}

	user, err := useCase.SetRole(ctx, email, parsedRole)
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}

	logger.Info("user role updated",
		slog.String("user_id", user.ID.String()),
		slog.String("role", parsedRole.String()),
	)

	return writeUser(io.Writer, format, "User role updated.", user)
}
