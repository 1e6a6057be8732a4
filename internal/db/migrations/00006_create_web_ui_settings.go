package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateWebUISettings, downCreateWebUISettings)
}

func upCreateWebUISettings(ctx context.Context, tx *sql.Tx) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS web_ui_settings (
    id      %s,
    user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    setting VARCHAR(32) NOT NULL,
    value   VARCHAR(32) NOT NULL,
    CONSTRAINT web_ui_settings_unique UNIQUE (user_id, setting)
)`, serialPK())

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create web_ui_settings table: %w", err)
	}
	return nil
}

func downCreateWebUISettings(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS web_ui_settings`)
	return err
}
