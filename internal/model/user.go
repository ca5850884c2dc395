package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents an application user record as stored in the
// `users` table. Users are keyed by UUID. The Member flag marks
// members of the university community, who receive a discount when
// purchasing bonuses. Role is either USER or ADMIN; admins manage
// the catalog and generate sessions.
//
// Fields:
//  ID           – primary key identifier (UUID).
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (USER or ADMIN).
//  Member       – whether the user belongs to the university community.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uuid.UUID // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Member       bool      // users.is_member
	CreatedAt    time.Time // users.created_at
}
