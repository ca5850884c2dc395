package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

// UserRepo provides data access to the users table.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user. The caller supplies the UUID so that the
// identity can be referenced before the insert commits. Duplicate
// emails are reported as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, is_member) VALUES (?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.PasswordHash, u.Role, u.Member)
	if err != nil {
		// 1062 is MySQL's duplicate-entry error; matching on the
		// message avoids importing driver internals for one code.
		if strings.Contains(err.Error(), "Error 1062") {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by email address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, is_member, created_at FROM users WHERE email = ?`, email)
	return scanUser(row.Scan)
}

// GetByID fetches a user by UUID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, is_member, created_at FROM users WHERE id = ?`, id.String())
	return scanUser(row.Scan)
}

func scanUser(scan func(dest ...interface{}) error) (*model.User, error) {
	var (
		u   model.User
		raw string
	)
	err := scan(&raw, &u.Email, &u.PasswordHash, &u.Role, &u.Member, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.ID, err = uuid.Parse(raw); err != nil {
		return nil, err
	}
	return &u, nil
}
