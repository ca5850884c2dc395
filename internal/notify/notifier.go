// Package notify delivers booking notifications: each one becomes an
// inbox row for the user plus an event on the message broker.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
	"github.com/mgarsanz/unisport/internal/queue"
	"github.com/mgarsanz/unisport/internal/repository"
	queue_publisher "github.com/mgarsanz/unisport/internal/service"
)

// InboxNotifier implements booking.Notifier on top of the
// notifications table and the booking.events queue. Failures are
// logged and swallowed: a lost notification must never undo a booking
// that already committed.
type InboxNotifier struct {
	repo *repository.NotificationRepo
}

// New returns a notifier writing through the given repository.
func New(repo *repository.NotificationRepo) *InboxNotifier {
	return &InboxNotifier{repo: repo}
}

// Notify stores the message in the user's inbox and fans it out to
// the broker.
func (n *InboxNotifier) Notify(ctx context.Context, userID uuid.UUID, title, content string) {
	row := model.Notification{UserID: userID, Title: title, Content: content}
	if err := n.repo.Create(ctx, &row); err != nil {
		log.Printf("notify: inbox write failed for user %s: %v", userID, err)
	}
	_ = queue_publisher.PublishBookingEvent(ctx, queue.BookingEvent{
		Kind:       queue.KindNotification,
		UserID:     userID.String(),
		Title:      title,
		Content:    content,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
