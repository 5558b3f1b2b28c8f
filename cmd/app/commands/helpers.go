// Package commands contains the CLI command implementations.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/betshield/betshield-api/internal/app"
	userDomain "github.com/betshield/betshield-api/internal/user/domain"
)

// IOTuple holds the reader and writer a command talks to.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple bound to stdin and stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer releases container resources and logs any failure.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any failure.
func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := m.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// validateFormat accepts "text" and "json".
func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
}

// userSummary is the CLI view of a user. The password hash never leaves the process.
type userSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func summarize(user *userDomain.User) userSummary {
	return userSummary{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role.OrDefault().String(),
	}
}

// writeUser prints user as text under heading, or as indented JSON.
func writeUser(w io.Writer, format, heading string, user *userDomain.User) error {
	summary := summarize(user)

	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(summary); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return nil
	}

	_, _ = fmt.Fprintln(w, heading)
	_, _ = fmt.Fprintf(w, "ID:    %s\n", summary.ID)
	_, _ = fmt.Fprintf(w, "Name:  %s\n", summary.Name)
	_, _ = fmt.Fprintf(w, "Email: %s\n", summary.Email)
	_, _ = fmt.Fprintf(w, "Role:  %s\n", summary.Role)
	return nil
}
