package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Tag represents a row in the tags table. Tags belong to exactly one
// user; titles are unique per user.
type Tag struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id" validate:"required"`
	Title  string `db:"title" validate:"required,max=32"`
}

// TagStore is the sqlx-backed access layer for tags.
type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

func (s *TagStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a new tag for a user. Returns ErrDuplicate when the
// user already has a tag with the same title.
func (s *TagStore) Create(ctx context.Context, t *Tag) (*Tag, error) {
	if err := validateInput(t); err != nil {
		return nil, err
	}

	id, err := insertID(ctx, s.db, `
		INSERT INTO tags (user_id, title) VALUES (?, ?)
	`, t.UserID, t.Title)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s.Get(ctx, t.UserID, id)
}

// Get returns one of the user's tags by ID, or ErrNotFound.
func (s *TagStore) Get(ctx context.Context, userID, id int64) (*Tag, error) {
	var t Tag
	err := s.db.GetContext(ctx, &t, s.q(`
		SELECT * FROM tags WHERE user_id = ? AND id = ?
	`), userID, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all tags for the user ordered by title.
func (s *TagStore) List(ctx context.Context, userID int64) ([]*Tag, error) {
	var tags []*Tag
	err := s.db.SelectContext(ctx, &tags, s.q(`
		SELECT * FROM tags WHERE user_id = ? ORDER BY title ASC
	`), userID)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Update renames one of the user's tags.
func (s *TagStore) Update(ctx context.Context, userID, id int64, title string) (*Tag, error) {
	updated := &Tag{UserID: userID, Title: title}
	if err := validateInput(updated); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE tags SET title = ? WHERE user_id = ? AND id = ?
	`), title, userID, id)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID, id)
}

// Delete removes one of the user's tags. Returns ErrNotFound when the
// tag does not exist or belongs to another user.
func (s *TagStore) Delete(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM tags WHERE user_id = ? AND id = ?
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
