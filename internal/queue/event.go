// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published on the booking.events queue.
const (
	KindReservationMade      = "reservation.made"
	KindReservationCancelled = "reservation.cancelled"
	KindWaitingJoined        = "waitlist.joined"
	KindWaitingLeft          = "waitlist.left"
	KindNotification         = "notification.created"
)

// BookingEvent is published after a booking state change commits. It
// carries enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type BookingEvent struct {
	Kind          string `json:"kind"`
	UserID        string `json:"user_id"`
	SessionID     uint64 `json:"session_id,omitempty"`
	ReservationID uint64 `json:"reservation_id,omitempty"`
	TargetName    string `json:"target_name,omitempty"`
	Date          string `json:"date,omitempty"`
	StartsAt      string `json:"starts_at,omitempty"`
	EndsAt        string `json:"ends_at,omitempty"`
	Position      int    `json:"position,omitempty"`
	Title         string `json:"title,omitempty"`
	Content       string `json:"content,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
