package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUsers, downCreateUsers)
}

func upCreateUsers(ctx context.Context, tx *sql.Tx) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
    id            %s,
    created       %s NOT NULL,
    fullname      VARCHAR(128) NOT NULL,
    username      VARCHAR(128) NOT NULL,
    email         VARCHAR(128) NOT NULL,
    role          INTEGER NOT NULL,
    password      VARCHAR(512) NOT NULL,
    password_date %s NOT NULL,
    second_factor VARCHAR(64),
    CONSTRAINT users_username_unique UNIQUE (username),
    CONSTRAINT users_email_unique UNIQUE (email)
)`, serialPK(), datetime(), datetime())

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func downCreateUsers(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS users`)
	return err
}
