package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Setting represents a row in the web_ui_settings table: one named
// value per user, used by the web UI for display preferences.
type Setting struct {
	ID      int64  `db:"id"`
	UserID  int64  `db:"user_id" validate:"required"`
	Setting string `db:"setting" validate:"required,max=32"`
	Value   string `db:"value" validate:"required,max=32"`
}

// SettingStore is the sqlx-backed access layer for per-user settings.
type SettingStore struct {
	db *sqlx.DB
}

func NewSettingStore(db *sqlx.DB) *SettingStore {
	return &SettingStore{db: db}
}

func (s *SettingStore) q(query string) string { return s.db.Rebind(query) }

// Set creates or updates a named setting for the user.
func (s *SettingStore) Set(ctx context.Context, setting *Setting) (*Setting, error) {
	if err := validateInput(setting); err != nil {
		return nil, err
	}

	// Try an UPDATE first; fall back to INSERT when the setting does
	// not exist yet. The unique (user_id, setting) index closes the
	// race between two first-time writers.
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE web_ui_settings SET value = ? WHERE user_id = ? AND setting = ?
	`), setting.Value, setting.UserID, setting.Setting)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		_, err = s.db.ExecContext(ctx, s.q(`
			INSERT INTO web_ui_settings (user_id, setting, value) VALUES (?, ?, ?)
		`), setting.UserID, setting.Setting, setting.Value)
		if err != nil && !isUniqueConstraintError(err) {
			return nil, err
		}
		if isUniqueConstraintError(err) {
			// Lost the race; apply as an update instead.
			_, err = s.db.ExecContext(ctx, s.q(`
				UPDATE web_ui_settings SET value = ? WHERE user_id = ? AND setting = ?
			`), setting.Value, setting.UserID, setting.Setting)
			if err != nil {
				return nil, err
			}
		}
	}

	return s.Get(ctx, setting.UserID, setting.Setting)
}

// Get returns the user's setting by name, or ErrNotFound.
func (s *SettingStore) Get(ctx context.Context, userID int64, name string) (*Setting, error) {
	var setting Setting
	err := s.db.GetContext(ctx, &setting, s.q(`
		SELECT * FROM web_ui_settings WHERE user_id = ? AND setting = ?
	`), userID, name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// GetByID returns one of the user's settings by row ID, or ErrNotFound.
func (s *SettingStore) GetByID(ctx context.Context, userID, id int64) (*Setting, error) {
	var setting Setting
	err := s.db.GetContext(ctx, &setting, s.q(`
		SELECT * FROM web_ui_settings WHERE user_id = ? AND id = ?
	`), userID, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// List returns all settings for the user ordered by name.
func (s *SettingStore) List(ctx context.Context, userID int64) ([]*Setting, error) {
	var settings []*Setting
	err := s.db.SelectContext(ctx, &settings, s.q(`
		SELECT * FROM web_ui_settings WHERE user_id = ? ORDER BY setting ASC
	`), userID)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// Delete removes one of the user's settings by row ID.
func (s *SettingStore) Delete(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM web_ui_settings WHERE user_id = ? AND id = ?
	`), userID, id)
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
