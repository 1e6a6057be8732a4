package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NewOpaqueToken generates the 32-character opaque token used for API
// clients and API tokens.
func NewOpaqueToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// APIClient represents a row in the api_clients table: a registered
// application that may hold tokens on behalf of users. The client token
// itself is hidden from API output.
type APIClient struct {
	ID           int64        `db:"id"`
	Created      time.Time    `db:"created"`
	Expires      sql.NullTime `db:"expires" validate:"-"`
	UserID       int64        `db:"user_id" validate:"required"`
	Enabled      bool         `db:"enabled"`
	AppName      string       `db:"app_name" validate:"required,max=64"`
	AppPublisher string       `db:"app_publisher" validate:"required,max=64"`
	Token        string       `db:"token"`
}

// HideFields lists columns that are dropped from API output.
func (APIClient) HideFields() []string { return []string{"token"} }

// APIClientStore is the sqlx-backed access layer for API clients.
type APIClientStore struct {
	db *sqlx.DB
}

func NewAPIClientStore(db *sqlx.DB) *APIClientStore {
	return &APIClientStore{db: db}
}

func (s *APIClientStore) q(query string) string { return s.db.Rebind(query) }

// Create registers a new API client. A fresh opaque token is generated
// when the record carries none.
func (s *APIClientStore) Create(ctx context.Context, c *APIClient) (*APIClient, error) {
	if err := validateInput(c); err != nil {
		return nil, err
	}
	if c.Created.IsZero() {
		c.Created = time.Now().UTC()
	}
	if c.Token == "" {
		c.Token = NewOpaqueToken()
	}

	id, err := insertID(ctx, s.db, `
		INSERT INTO api_clients (created, expires, user_id, enabled, app_name, app_publisher, token)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.Created, c.Expires, c.UserID, c.Enabled, c.AppName, c.AppPublisher, c.Token)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get returns the API client with the given ID, or ErrNotFound.
func (s *APIClientStore) Get(ctx context.Context, id int64) (*APIClient, error) {
	var c APIClient
	err := s.db.GetContext(ctx, &c, s.q(`SELECT * FROM api_clients WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns the user's API clients, newest first.
func (s *APIClientStore) ListByUser(ctx context.Context, userID int64) ([]*APIClient, error) {
	var clients []*APIClient
	err := s.db.SelectContext(ctx, &clients, s.q(`
		SELECT * FROM api_clients WHERE user_id = ? ORDER BY created DESC, id DESC
	`), userID)
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// SetEnabled toggles a client. Disabling a client implicitly disables
// every token issued through it during authorization.
func (s *APIClientStore) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE api_clients SET enabled = ? WHERE id = ?
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
