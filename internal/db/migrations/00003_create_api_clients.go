package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateAPIClients, downCreateAPIClients)
}

func upCreateAPIClients(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS api_clients (
    id            %s,
    created       %s NOT NULL,
    expires       %s,
    user_id       BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    enabled       BOOLEAN NOT NULL DEFAULT TRUE,
    app_name      VARCHAR(64) NOT NULL,
    app_publisher VARCHAR(64) NOT NULL,
    token         VARCHAR(32) NOT NULL,
    CONSTRAINT api_clients_app_unique UNIQUE (user_id, app_name, app_publisher),
    CONSTRAINT api_clients_token_unique UNIQUE (token)
)`, serialPK(), datetime(), datetime()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS api_tokens (
    id        %s,
    created   %s NOT NULL,
    expires   %s,
    client_id BIGINT NOT NULL REFERENCES api_clients (id) ON DELETE CASCADE,
    user_id   BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    enabled   BOOLEAN NOT NULL DEFAULT TRUE,
    token     VARCHAR(32) NOT NULL,
    CONSTRAINT api_tokens_token_unique UNIQUE (token)
)`, serialPK(), datetime(), datetime()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS api_scopes (
    id      %s,
    module  VARCHAR(32) NOT NULL,
    subject VARCHAR(32) NOT NULL,
    CONSTRAINT api_scopes_name_unique UNIQUE (module, subject)
)`, serialPK()),
		`CREATE TABLE IF NOT EXISTS api_token_scopes (
    token_id BIGINT NOT NULL REFERENCES api_tokens (id) ON DELETE CASCADE,
    scope_id BIGINT NOT NULL REFERENCES api_scopes (id) ON DELETE CASCADE,
    CONSTRAINT api_token_scopes_unique UNIQUE (token_id, scope_id)
)`,
	}

	for _, ddl := range statements {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create api client tables: %w", err)
		}
	}
	return nil
}

func downCreateAPIClients(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"api_token_scopes", "api_scopes", "api_tokens", "api_clients"} {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return err
		}
	}
	return nil
}
