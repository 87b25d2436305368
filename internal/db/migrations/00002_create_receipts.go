package migrations

// The event payload column type differs by database driver, so this
// migration is written in Go.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateReceipts, downCreateReceipts)
}

func upCreateReceipts(ctx context.Context, tx *sql.Tx) error {
	const transactions = `CREATE TABLE IF NOT EXISTS transactions (
    id         VARCHAR(36) PRIMARY KEY,
    sender     VARCHAR(42) NOT NULL,
    target     VARCHAR(42) NOT NULL,
    method     VARCHAR(64) NOT NULL,
    value      VARCHAR(80) NOT NULL DEFAULT '0',
    created    VARCHAR(42) NOT NULL DEFAULT '',
    created_at TIMESTAMP   NOT NULL
)`
	if _, err := tx.ExecContext(ctx, transactions); err != nil {
		return fmt.Errorf("create transactions table: %w", err)
	}

	events := `CREATE TABLE IF NOT EXISTS events (
    tx_id     VARCHAR(36) NOT NULL,
    log_index INTEGER     NOT NULL,
    address   VARCHAR(42) NOT NULL,
    name      VARCHAR(64) NOT NULL,
    fields    ` + jsonColumn() + ` NOT NULL,
    PRIMARY KEY (tx_id, log_index)
)`
	if _, err := tx.ExecContext(ctx, events); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

func downCreateReceipts(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS events`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS transactions`)
	return err
}
