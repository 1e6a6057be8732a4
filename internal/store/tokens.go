package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// APIScope represents a row in the api_scopes table: a permission named
// module.subject, e.g. tags.retrieve.
type APIScope struct {
	ID      int64  `db:"id"`
	Module  string `db:"module" validate:"required,max=32"`
	Subject string `db:"subject" validate:"required,max=32"`
}

// FullName returns the scope in its module.subject form.
func (s APIScope) FullName() string { return s.Module + "." + s.Subject }

// ExtraFields adds the combined scope name to serialized output.
func (s APIScope) ExtraFields() map[string]any {
	return map[string]any{"full_name": s.FullName()}
}

// APIToken represents a row in the api_tokens table: a bearer token a
// client holds on behalf of a user, restricted to a set of scopes. The
// token value is hidden from API output.
type APIToken struct {
	ID       int64        `db:"id"`
	Created  time.Time    `db:"created"`
	Expires  sql.NullTime `db:"expires" validate:"-"`
	ClientID int64        `db:"client_id" validate:"required"`
	UserID   int64        `db:"user_id" validate:"required"`
	Enabled  bool         `db:"enabled"`
	Token    string       `db:"token"`
}

// HideFields lists columns that are dropped from API output.
func (APIToken) HideFields() []string { return []string{"token"} }

// APITokenStore is the sqlx-backed access layer for API tokens and
// their scopes.
type APITokenStore struct {
	db *sqlx.DB
}

func NewAPITokenStore(db *sqlx.DB) *APITokenStore {
	return &APITokenStore{db: db}
}

func (s *APITokenStore) q(query string) string { return s.db.Rebind(query) }

// Create issues a new token. A fresh opaque token value is generated
// when the record carries none.
func (s *APITokenStore) Create(ctx context.Context, t *APIToken) (*APIToken, error) {
	if err := validateInput(t); err != nil {
		return nil, err
	}
	if t.Created.IsZero() {
		t.Created = time.Now().UTC()
	}
	if t.Token == "" {
		t.Token = NewOpaqueToken()
	}

	id, err := insertID(ctx, s.db, `
		INSERT INTO api_tokens (created, expires, client_id, user_id, enabled, token)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.Created, t.Expires, t.ClientID, t.UserID, t.Enabled, t.Token)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get returns the token with the given ID, or ErrNotFound.
func (s *APITokenStore) Get(ctx context.Context, id int64) (*APIToken, error) {
	var t APIToken
	err := s.db.GetContext(ctx, &t, s.q(`SELECT * FROM api_tokens WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByToken returns the token with the given opaque value, or
// ErrNotFound. No enabled or expiry checks are applied here; that is
// authorization policy, not storage.
func (s *APITokenStore) GetByToken(ctx context.Context, token string) (*APIToken, error) {
	var t APIToken
	err := s.db.GetContext(ctx, &t, s.q(`SELECT * FROM api_tokens WHERE token = ?`), token)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUser returns the user's tokens, newest first.
func (s *APITokenStore) ListByUser(ctx context.Context, userID int64) ([]*APIToken, error) {
	var tokens []*APIToken
	err := s.db.SelectContext(ctx, &tokens, s.q(`
		SELECT * FROM api_tokens WHERE user_id = ? ORDER BY created DESC, id DESC
	`), userID)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// SetEnabled toggles a token.
func (s *APITokenStore) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE api_tokens SET enabled = ? WHERE id = ?
	`), enabled, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertScope creates an API scope if it does not exist yet and returns
// the stored record either way.
func (s *APITokenStore) UpsertScope(ctx context.Context, module, subject string) (*APIScope, error) {
	scope := &APIScope{Module: module, Subject: subject}
	if err := validateInput(scope); err != nil {
		return nil, err
	}

	var existing APIScope
	err := s.db.GetContext(ctx, &existing, s.q(`
		SELECT * FROM api_scopes WHERE module = ? AND subject = ?
	`), module, subject)
	if err == nil {
		return &existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO api_scopes (module, subject) VALUES (?, ?)
	`), module, subject)
	if err != nil && !isUniqueConstraintError(err) {
		return nil, err
	}

	err = s.db.GetContext(ctx, &existing, s.q(`
		SELECT * FROM api_scopes WHERE module = ? AND subject = ?
	`), module, subject)
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// GrantScope attaches a scope to a token.
func (s *APITokenStore) GrantScope(ctx context.Context, tokenID, scopeID int64) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO api_token_scopes (token_id, scope_id) VALUES (?, ?)
	`), tokenID, scopeID)
	if isUniqueConstraintError(err) {
		return nil
	}
	return err
}

// ScopeNames returns the module.subject names of all scopes granted to
// the token.
func (s *APITokenStore) ScopeNames(ctx context.Context, tokenID int64) ([]string, error) {
	var scopes []APIScope
	err := s.db.SelectContext(ctx, &scopes, s.q(`
		SELECT s.id, s.module, s.subject
		FROM api_scopes s
		INNER JOIN api_token_scopes ts ON ts.scope_id = s.id
		WHERE ts.token_id = ?
		ORDER BY s.module, s.subject
	`), tokenID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		names = append(names, scope.FullName())
	}
	return names, nil
}
