// Package migrations holds the Go migrations whose DDL depends on the
// database in use.
package migrations

import "fmt"

var dialect = "sqlite3"

// SetDialect selects the DDL flavor for the Go migrations. It must be
// called before goose runs them.
func SetDialect(d string) error {
	switch d {
	case "sqlite3", "postgres", "mysql":
		dialect = d
		return nil
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", d)
	}
}

// jsonColumn is the column type for JSON documents: JSONB on PostgreSQL,
// JSON on MySQL and TEXT on SQLite.
func jsonColumn() string {
	switch dialect {
	case "postgres":
		return "JSONB"
	case "mysql":
		return "JSON"
	default:
		return "TEXT"
	}
}
