package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	userUseCase "github.com/betshield/betshield-api/internal/user/usecase"
)

// RunCreateUser creates an account from the command line, typically to seed the first admin.
// When password is empty it is read from io.Reader so it stays out of shell history.
//
// Requirements: Database must be migrated and accessible.
func RunCreateUser(
	ctx context.Context,
	useCase userUseCase.UseCase,
	logger *slog.Logger,
	name string,
	email string,
	password string,
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

	if password == "" {
		password, err = promptForPassword(io)
		if err != nil {
			return err
		}
	}

	logger.Info("creating user", slog.String("email", email), slog.String("role", parsedRole.String()))

	user, err := useCase.Create(ctx, userUseCase.CreateUserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     parsedRole,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("user created", slog.String("user_id", user.ID.String()))

	return writeUser(io.Writer, format, "User created successfully!", user)
}

// promptForPassword reads one line from io.Reader. The trailing newline is not part of the password.
func promptForPassword(io IOTuple) (string, error) {
	if io.Reader == nil {
		return "", errors.New("password is required")
	}

	_, _ = fmt.Fprint(io.Writer, "Enter password: ")

	line, err := bufio.NewReader(io.Reader).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	_, _ = fmt.Fprintln(io.Writer)

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}
