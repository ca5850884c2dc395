package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

// Tx is the transactional surface the engine mutates through. Every
// method targets the unit of atomicity from the design: one session's
// free_places plus the reservation and waiting-list rows referencing
// it. The MySQL implementation backs these with a single *sql.Tx; the
// in-memory implementation used in tests serializes on a mutex.
//
// Lookups return ErrNotFound (wrapped or directly) when the row does
// not exist, except the waiting-list head lookups which return
// (nil, nil) so "queue empty" is not an error.
type Tx interface {
	// SessionByID loads a session row.
	SessionByID(ctx context.Context, id uint64) (*model.Session, error)
	// FacilitySessionAt finds the facility session matching a cart
	// slot by facility, date and exact start/end times.
	FacilitySessionAt(ctx context.Context, facilityID uint64, date time.Time, start, end model.TimeOfDay) (*model.Session, error)
	// TryReserve atomically checks free_places > 0 and decrements it,
	// returning false without mutation when the session is full. This
	// is the sole decrement path.
	TryReserve(ctx context.Context, sessionID uint64) (bool, error)
	// Release increments free_places by one, capped at capacity.
	Release(ctx context.Context, sessionID uint64) error
	// CreateSessions inserts generated sessions in bulk.
	CreateSessions(ctx context.Context, sessions []*model.Session) error

	// CreateReservation inserts a reservation and fills in its ID.
	CreateReservation(ctx context.Context, r *model.Reservation) error
	// DeleteReservation hard-deletes a reservation row.
	DeleteReservation(ctx context.Context, id uint64) error
	// ReservationByID loads a reservation row.
	ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error)
	// HasReservation reports whether the user already holds a
	// reservation for the session.
	HasReservation(ctx context.Context, userID uuid.UUID, sessionID uint64) (bool, error)
	// UserSlotsOn returns the time intervals of the user's
	// reservations on the given calendar date.
	UserSlotsOn(ctx context.Context, userID uuid.UUID, date time.Time) ([]BookedSlot, error)

	// BonusesForActivity returns all of the user's entitlements for
	// the activity; the engine applies the validity predicate itself.
	BonusesForActivity(ctx context.Context, userID uuid.UUID, activityID uint64) ([]model.ProductBonus, error)
	// CreateProductBonus inserts a purchased entitlement.
	CreateProductBonus(ctx context.Context, b *model.ProductBonus) error
	// SetBonusAvailability flips the single-use available flag; used
	// by consumption (false) and restoration (true).
	SetBonusAvailability(ctx context.Context, bonusID uint64, available bool) error

	// CreateWaitingEntry appends an entry and fills in its ID.
	CreateWaitingEntry(ctx context.Context, e *model.WaitingListEntry) error
	// DeleteWaitingEntry removes the user's entry for the session,
	// reporting whether one existed.
	DeleteWaitingEntry(ctx context.Context, userID uuid.UUID, sessionID uint64) (bool, error)
	// DeleteWaitingEntryByID removes an entry by primary key.
	DeleteWaitingEntryByID(ctx context.Context, id uint64) error
	// HasWaitingEntry reports whether the user is already queued.
	HasWaitingEntry(ctx context.Context, userID uuid.UUID, sessionID uint64) (bool, error)
	// FirstUnnotified returns the earliest entry (join_date, then id)
	// with a null notified_at, or nil when the queue has none.
	FirstUnnotified(ctx context.Context, sessionID uint64) (*model.WaitingListEntry, error)
	// CurrentNotified returns the earliest entry carrying a non-null
	// notified_at, or nil when no offer is live.
	CurrentNotified(ctx context.Context, sessionID uint64) (*model.WaitingListEntry, error)
	// MarkNotified stamps notified_at on an entry.
	MarkNotified(ctx context.Context, entryID uint64, at time.Time) error
	// CountEarlierEntries counts entries ahead of the given one in
	// FIFO order (earlier join_date, or same join_date with lower id).
	CountEarlierEntries(ctx context.Context, sessionID uint64, joinDate time.Time, beforeID uint64) (int, error)
}

// Store is the persistence collaborator of the engine. Reads outside
// a transaction reuse the Tx method set against the base connection;
// ExecTx runs fn inside one transaction, committing when fn returns
// nil and rolling back otherwise.
type Store interface {
	Tx
	ExecTx(ctx context.Context, fn func(tx Tx) error) error
}

// Notifier is the write-only notification sink. Implementations
// persist an inbox row and fan the event out to the message broker;
// failures must not abort the booking that triggered them.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, content string)
}

// TimeoutScheduler registers a deferred waiting-list check for a
// session. Delivery is at-least-once; OnTimeoutCheck tolerates
// duplicate and late callbacks.
type TimeoutScheduler interface {
	Schedule(ctx context.Context, sessionID uint64, delay time.Duration) error
}
