// Package booking implements the reservation engine: capacity
// accounting, entitlement validation, time-conflict detection and the
// waiting-list notify/timeout cascade. Persistence, notification
// delivery and delayed scheduling are injected collaborators; every
// mutation runs inside a single store transaction so concurrent
// bookings against the same session serialize correctly.
package booking

import "errors"

// Sentinel errors returned by the engine. All of them are expected,
// user-recoverable outcomes; handlers translate them into HTTP
// responses with errors.Is. Infrastructure failures (store, broker)
// are returned verbatim and treated as fatal by the caller.
var (
	// ErrConflictingTime signals that the requested interval overlaps
	// one of the user's reservations on the same date, or that two
	// co-selected cart slots overlap each other.
	ErrConflictingTime = errors.New("conflicting time")

	// ErrNoValidEntitlement signals that the user holds no usable
	// bonus for the session's activity.
	ErrNoValidEntitlement = errors.New("no valid entitlement")

	// ErrSessionFull signals a lost capacity race: no free places
	// remained at commit time.
	ErrSessionFull = errors.New("session full")

	// ErrAlreadyReserved signals a duplicate booking attempt for the
	// same session.
	ErrAlreadyReserved = errors.New("already reserved")

	// ErrAlreadyInWaitingList signals a duplicate waiting-list join.
	ErrAlreadyInWaitingList = errors.New("already in waiting list")

	// ErrCancellationWindowExpired signals a cancellation attempted
	// less than two hours before the session start.
	ErrCancellationWindowExpired = errors.New("cancellation window expired")

	// ErrSessionNotFull signals a waiting-list join for a session
	// that still has open capacity.
	ErrSessionNotFull = errors.New("session not full")

	// ErrNotFound signals that a referenced session, reservation or
	// waiting-list entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden signals an operation on a reservation owned by a
	// different user.
	ErrForbidden = errors.New("forbidden")

	// ErrWrongTarget signals booking an activity session through the
	// facility path or vice versa.
	ErrWrongTarget = errors.New("wrong session target")

	// ErrEmptyCart signals a facility checkout with no selected slots.
	ErrEmptyCart = errors.New("empty cart")
)
