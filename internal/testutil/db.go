// Package testutil provides fixtures shared by the package tests: an
// in-memory migrated database, a funded chain and a deployed marketplace.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/joestump/joe-market/internal/db"
)

// NewTestDB opens a private in-memory SQLite database through the same
// factory and migration path the CLI uses.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	// Shared cache keeps every pool connection on one in-memory database;
	// the test name keeps databases of parallel tests apart.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared&_busy_timeout=5000"
	conn, err := db.New("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(conn, "sqlite3"); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return conn
}
