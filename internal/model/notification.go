package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an inbox message for a user, written after each
// meaningful booking event. Delivery and display are up to clients.
type Notification struct {
	ID        uint64    // notifications.id
	UserID    uuid.UUID // notifications.user_id
	Title     string    // notifications.title
	Content   string    // notifications.content
	Read      bool      // notifications.is_read
	CreatedAt time.Time // notifications.created_at
}
