package model

import (
	"time"

	"github.com/google/uuid"
)

// Reservation binds a user to a session. At most one reservation may
// exist per (user, session) pair. Cancellation hard-deletes the row
// and releases the session place in the same transaction; there is no
// soft-cancelled state.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who booked the place.
//  SessionID – booked session.
//  BonusID   – entitlement consumed by this booking; nil for facility
//              rentals and for period bonuses (which are time-boxed,
//              not count-boxed, and thus never consumed).
//  CreatedAt – creation timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	UserID    uuid.UUID // reservations.user_id
	SessionID uint64    // reservations.session_id
	BonusID   *uint64   // reservations.bonus_id (nullable)
	CreatedAt time.Time // reservations.created_at
}
