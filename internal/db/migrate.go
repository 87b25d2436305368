package db

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/joestump/joe-market/internal/db/migrations"
)

//go:embed migrations
var Migrations embed.FS

// Migrate brings the schema for driver up to date from the embedded
// migrations. The chain must not accept transactions before it returns.
func Migrate(db *sqlx.DB, driver string) error {
	if err := prepare(driver); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	if err := goose.Up(db.DB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the most recently applied migration version.
func SchemaVersion(db *sqlx.DB, driver string) (int64, error) {
	if err := prepare(driver); err != nil {
		return 0, err
	}
	defer goose.SetBaseFS(nil)

	v, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func prepare(driver string) error {
	// the goose dialect names match the factory's driver names
	switch driver {
	case "sqlite3", "mysql", "postgres":
	default:
		return fmt.Errorf("unknown driver for goose dialect: %q", driver)
	}
	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := migrations.SetDialect(driver); err != nil {
		return err
	}

	sub, err := fs.Sub(Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sub migrations fs: %w", err)
	}
	goose.SetBaseFS(sub)
	return nil
}
