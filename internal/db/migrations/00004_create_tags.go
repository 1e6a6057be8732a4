package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateTags, downCreateTags)
}

func upCreateTags(ctx context.Context, tx *sql.Tx) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tags (
    id      %s,
    user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title   VARCHAR(32) NOT NULL,
    CONSTRAINT tags_user_title_unique UNIQUE (user_id, title)
)`, serialPK())

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tags table: %w", err)
	}
	return nil
}

func downCreateTags(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS tags`)
	return err
}
