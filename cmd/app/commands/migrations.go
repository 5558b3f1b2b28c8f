package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/betshield/betshield-api/migrations"
)

// RunMigrations applies the schema migrations embedded in the binary for the
// configured driver. steps == 0 applies everything pending; otherwise steps
// migrations are applied (positive) or rolled back (negative).
// No pending migrations is not an error.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString string, steps int) error {
	logger.Info("running database migrations", slog.String("driver", dbDriver), slog.Int("steps", steps))

	src, err := migrations.Source(dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dbDriver, dbConnectionString))
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("migrations completed, schema is empty")
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	default:
		logger.Info("migrations completed", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}
	return nil
}

// migrateURL turns the runtime DSN into the URL form golang-migrate expects.
// The MySQL driver DSN carries no scheme.
func migrateURL(dbDriver, dbConnectionString string) string {
	if dbDriver == "mysql" {
		return "mysql://" + dbConnectionString
	}
	return dbConnectionString
}
