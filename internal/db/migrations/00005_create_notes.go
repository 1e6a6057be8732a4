package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateNotes, downCreateNotes)
}

func upCreateNotes(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS note_folders (
    id        %s,
    user_id   BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    parent_id BIGINT REFERENCES note_folders (id) ON DELETE CASCADE,
    title     VARCHAR(128) NOT NULL
)`, serialPK()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS notes (
    id        %s,
    created   %s NOT NULL,
    user_id   BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    folder_id BIGINT REFERENCES note_folders (id) ON DELETE SET NULL,
    type      INTEGER NOT NULL,
    title     VARCHAR(128) NOT NULL,
    body      TEXT NOT NULL
)`, serialPK(), datetime()),
		`CREATE INDEX IF NOT EXISTS notes_user_idx ON notes (user_id, created)`,
	}

	for _, ddl := range statements {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create note tables: %w", err)
		}
	}
	return nil
}

func downCreateNotes(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"notes", "note_folders"} {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return err
		}
	}
	return nil
}
