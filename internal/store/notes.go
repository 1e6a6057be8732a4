package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// NoteType is the body format of a note.
type NoteType int

const (
	NotePlain    NoteType = 1
	NoteMarkdown NoteType = 2
)

// EnumValue returns the wire value for the note type.
func (t NoteType) EnumValue() int { return int(t) }

// NoteFolder represents a row in the note_folders table. Folders nest
// through the parent reference.
type NoteFolder struct {
	ID       int64         `db:"id"`
	UserID   int64         `db:"user_id" validate:"required"`
	ParentID sql.NullInt64 `db:"parent_id" validate:"-"`
	Title    string        `db:"title" validate:"required,max=128"`
}

// Note represents a row in the notes table.
type Note struct {
	ID       int64         `db:"id"`
	Created  time.Time     `db:"created"`
	UserID   int64         `db:"user_id" validate:"required"`
	FolderID sql.NullInt64 `db:"folder_id" validate:"-"`
	Type     NoteType      `db:"type" validate:"required,min=1,max=2"`
	Title    string        `db:"title" validate:"required,max=128"`
	Body     string        `db:"body"`
}

// NoteStore is the sqlx-backed access layer for notes and their folders.
type NoteStore struct {
	db *sqlx.DB
}

func NewNoteStore(db *sqlx.DB) *NoteStore {
	return &NoteStore{db: db}
}

func (s *NoteStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a new note for a user.
func (s *NoteStore) Create(ctx context.Context, n *Note) (*Note, error) {
	if err := validateInput(n); err != nil {
		return nil, err
	}
	if n.Created.IsZero() {
		n.Created = time.Now().UTC()
	}

	id, err := insertID(ctx, s.db, `
		INSERT INTO notes (created, user_id, folder_id, type, title, body)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.Created, n.UserID, n.FolderID, n.Type, n.Title, n.Body)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, n.UserID, id)
}

// Get returns one of the user's notes by ID, or ErrNotFound.
func (s *NoteStore) Get(ctx context.Context, userID, id int64) (*Note, error) {
	var n Note
	err := s.db.GetContext(ctx, &n, s.q(`
		SELECT * FROM notes WHERE user_id = ? AND id = ?
	`), userID, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns all notes for the user, newest first.
func (s *NoteStore) List(ctx context.Context, userID int64) ([]*Note, error) {
	var notes []*Note
	err := s.db.SelectContext(ctx, &notes, s.q(`
		SELECT * FROM notes WHERE user_id = ? ORDER BY created DESC, id DESC
	`), userID)
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// Update persists changed fields for one of the user's notes.
func (s *NoteStore) Update(ctx context.Context, n *Note) (*Note, error) {
	if err := validateInput(n); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE notes SET folder_id = ?, type = ?, title = ?, body = ?
		WHERE user_id = ? AND id = ?
	`), n.FolderID, n.Type, n.Title, n.Body, n.UserID, n.ID)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, n.UserID, n.ID)
}

// Delete removes one of the user's notes.
func (s *NoteStore) Delete(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM notes WHERE user_id = ? AND id = ?
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

// CreateFolder inserts a new note folder for a user.
func (s *NoteStore) CreateFolder(ctx context.Context, f *NoteFolder) (*NoteFolder, error) {
	if err := validateInput(f); err != nil {
		return nil, err
	}

	id, err := insertID(ctx, s.db, `
		INSERT INTO note_folders (user_id, parent_id, title) VALUES (?, ?, ?)
	`, f.UserID, f.ParentID, f.Title)
	if err != nil {
		return nil, err
	}

	var created NoteFolder
	err = s.db.GetContext(ctx, &created, s.q(`
		SELECT * FROM note_folders WHERE id = ?
	`), id)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ListFolders returns all note folders for the user ordered by title.
func (s *NoteStore) ListFolders(ctx context.Context, userID int64) ([]*NoteFolder, error) {
	var folders []*NoteFolder
	err := s.db.SelectContext(ctx, &folders, s.q(`
		SELECT * FROM note_folders WHERE user_id = ? ORDER BY title ASC
	`), userID)
	if err != nil {
		return nil, err
	}
	return folders, nil
}
