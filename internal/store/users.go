package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/dstark/my/internal/crypto"
	"github.com/jmoiron/sqlx"
)

// UserRole is the privilege level of a user account.
type UserRole int

const (
	RoleRoot  UserRole = 1
	RoleAdmin UserRole = 2
	RoleUser  UserRole = 3
)

// EnumValue returns the wire value for the role.
func (r UserRole) EnumValue() int { return int(r) }

// User represents a row in the users table. The password hash is never
// serialized and the second factor secret only appears as a presence
// flag.
type User struct {
	ID           int64          `db:"id"`
	Created      time.Time      `db:"created"`
	Fullname     string         `db:"fullname" validate:"required,max=128"`
	Username     string         `db:"username" validate:"required,max=128"`
	Email        string         `db:"email" validate:"required,email,max=128"`
	Role         UserRole       `db:"role" validate:"required,min=1,max=3"`
	Password     string         `db:"password" validate:"required"`
	PasswordDate time.Time      `db:"password_date"`
	SecondFactor sql.NullString `db:"second_factor" validate:"-"`
}

// HideFields lists columns that are dropped from API output.
func (User) HideFields() []string { return []string{"password", "password_date"} }

// MaskFields lists columns serialized as a presence flag only.
func (User) MaskFields() []string { return []string{"second_factor"} }

// IsAdmin reports whether the user holds the admin or root role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleRoot
}

// SetPassword hashes the given password with argon2id and stamps the
// password date.
func (u *User) SetPassword(password string) error {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hash
	u.PasswordDate = time.Now().UTC()
	return nil
}

// VerifyPassword reports whether password matches the stored hash.
func (u *User) VerifyPassword(password string) bool {
	ok, err := crypto.VerifyPassword(password, u.Password)
	return err == nil && ok
}

// UserStore is the sqlx-backed access layer for user accounts.
type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a new user. The caller is expected to have called
// SetPassword on the record beforehand.
func (s *UserStore) Create(ctx context.Context, u *User) (*User, error) {
	if err := validateInput(u); err != nil {
		return nil, err
	}
	if u.Created.IsZero() {
		u.Created = time.Now().UTC()
	}

	id, err := insertID(ctx, s.db, `
		INSERT INTO users (created, fullname, username, email, role, password, password_date, second_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, u.Created, u.Fullname, u.Username, u.Email, u.Role, u.Password, u.PasswordDate, u.SecondFactor)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the user with the given ID, or ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT * FROM users WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Count returns the total number of user accounts.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

// GetByUsername returns the user matching username, or ErrNotFound.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT * FROM users WHERE username = ?`), username)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns users visible to the given viewer: root sees everyone,
// admins see everyone except root accounts, regular users see only
// themselves. An optional id filter narrows the result further.
func (s *UserStore) List(ctx context.Context, viewer *User, filterID int64) ([]*User, error) {
	query := `SELECT * FROM users WHERE 1 = 1`
	args := []any{}

	switch viewer.Role {
	case RoleRoot:
		// No restriction.
	case RoleAdmin:
		query += ` AND role != ?`
		args = append(args, RoleRoot)
	default:
		query += ` AND id = ?`
		args = append(args, viewer.ID)
	}

	if filterID > 0 {
		query += ` AND id = ?`
		args = append(args, filterID)
	}
	query += ` ORDER BY username ASC`

	var users []*User
	if err := s.db.SelectContext(ctx, &users, s.q(query), args...); err != nil {
		return nil, err
	}
	return users, nil
}

// Update persists changed profile fields for the given user.
func (s *UserStore) Update(ctx context.Context, u *User) (*User, error) {
	if err := validateInput(u); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE users
		SET fullname = ?, username = ?, email = ?, role = ?, password = ?, password_date = ?, second_factor = ?
		WHERE id = ?
	`), u.Fullname, u.Username, u.Email, u.Role, u.Password, u.PasswordDate, u.SecondFactor, u.ID)
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
	return s.GetByID(ctx, u.ID)
}

// Delete removes a user. Returns ErrNotFound when no row was deleted.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM users WHERE id = ?`), id)
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
