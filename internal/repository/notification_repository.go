package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

// NotificationRepo provides data access to the notifications inbox.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the
// given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts a notification and populates its generated ID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, content) VALUES (?, ?, ?)`,
		n.UserID.String(), n.Title, n.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns the user's notifications, unread first, newest
// within each group.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, content, is_read, created_at FROM notifications
		 WHERE user_id = ?
		 ORDER BY is_read ASC, created_at DESC, id DESC`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var (
			n       model.Notification
			rawUser string
		)
		if err := rows.Scan(&n.ID, &rawUser, &n.Title, &n.Content, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if n.UserID, err = uuid.Parse(rawUser); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one of the user's notifications as read. The user
// filter stops users from touching other inboxes.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID uuid.UUID, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`,
		id, userID.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
