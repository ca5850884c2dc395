// Package-level sentinel errors reused across repositories. These
// values allow handlers to distinguish failure scenarios without
// inspecting SQL driver errors directly. Engine-facing lookups wrap
// booking.ErrNotFound instead so the core's contract holds.
package repository

import "errors"

// ErrEmailExists is returned when registering a user with an email
// address that is already taken. Handlers should translate this into
// an HTTP 409 response.
var ErrEmailExists = errors.New("email already registered")

// ErrUserNotFound is returned when a user lookup by id or email
// matches no row. Handlers should translate this into an HTTP 404 or,
// for login, a generic 401.
var ErrUserNotFound = errors.New("user not found")
