// Package migrations embeds the SQL schema migrations for every supported database driver.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgresql/*.sql mysql/*.sql
var files embed.FS

// Dir returns the migrations directory for a database driver.
func Dir(driver string) (string, error) {
	switch driver {
	case "postgres":
		return "postgresql", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// FS exposes the embedded migration files.
func FS() fs.FS {
	return files
}

// Source returns a migrate source driver reading the embedded migrations of a database driver.
func Source(driver string) (source.Driver, error) {
	dir, err := Dir(driver)
	if err != nil {
		return nil, err
	}
	return iofs.New(files, dir)
}
