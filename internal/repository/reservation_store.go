package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/booking"
	"github.com/mgarsanz/unisport/internal/model"
)

// CreateReservation inserts a reservation and populates its generated
// ID and creation timestamp.
func (q queries) CreateReservation(ctx context.Context, r *model.Reservation) error {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO reservations (user_id, session_id, bonus_id) VALUES (?, ?, ?)`,
		r.UserID.String(), r.SessionID, nullableID(r.BonusID))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)
	return q.db.QueryRowContext(ctx,
		`SELECT created_at FROM reservations WHERE id = ?`, r.ID).Scan(&r.CreatedAt)
}

// DeleteReservation hard-deletes a reservation row.
func (q queries) DeleteReservation(ctx context.Context, id uint64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	return err
}

// ReservationByID loads a reservation row.
func (q queries) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	var (
		r       model.Reservation
		rawUser string
		bonusID sql.NullInt64
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, session_id, bonus_id, created_at FROM reservations WHERE id = ?`, id).
		Scan(&r.ID, &rawUser, &r.SessionID, &bonusID, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	if r.UserID, err = uuid.Parse(rawUser); err != nil {
		return nil, err
	}
	if bonusID.Valid {
		b := uint64(bonusID.Int64)
		r.BonusID = &b
	}
	return &r, nil
}

// HasReservation reports whether the user already holds a reservation
// for the session.
func (q queries) HasReservation(ctx context.Context, userID uuid.UUID, sessionID uint64) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx,
		`SELECT 1 FROM reservations WHERE user_id = ? AND session_id = ? LIMIT 1`,
		userID.String(), sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UserSlotsOn returns the intervals of the user's reservations on the
// given date, joined through sessions so conflict checks need no
// further queries.
func (q queries) UserSlotsOn(ctx context.Context, userID uuid.UUID, date time.Time) ([]booking.BookedSlot, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT s.id, s.date, s.start_time, s.end_time
		 FROM reservations r
		 JOIN sessions s ON s.id = r.session_id
		 WHERE r.user_id = ? AND s.date = ?`,
		userID.String(), dateArg(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []booking.BookedSlot
	for rows.Next() {
		var (
			sl       booking.BookedSlot
			startRaw string
			endRaw   string
		)
		if err := rows.Scan(&sl.SessionID, &sl.Date, &startRaw, &endRaw); err != nil {
			return nil, err
		}
		if sl.Start, err = model.ParseTimeOfDay(startRaw); err != nil {
			return nil, err
		}
		if sl.End, err = model.ParseTimeOfDay(endRaw); err != nil {
			return nil, err
		}
		slots = append(slots, sl)
	}
	return slots, rows.Err()
}

// nullableID converts an optional numeric reference into a driver
// value, mapping nil to SQL NULL.
func nullableID(id *uint64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
