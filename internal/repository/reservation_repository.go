package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

// ReservationDetail is a reservation joined with its session and the
// name of what was booked, shaped for the listing endpoints.
type ReservationDetail struct {
	Reservation model.Reservation
	Session     model.Session
	TargetName  string
}

// ReservationRepo provides the read side of reservations: the
// upcoming and past listings shown to users. Writes go through the
// booking store so they stay transactional with capacity.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationDetailQuery = `
	SELECT r.id, r.user_id, r.session_id, r.bonus_id, r.created_at,
	       s.id, s.activity_id, s.facility_id, s.capacity, s.free_places,
	       s.date, s.start_time, s.end_time,
	       COALESCE(a.name, f.name)
	FROM reservations r
	JOIN sessions s ON s.id = r.session_id
	LEFT JOIN activities a ON a.id = s.activity_id
	LEFT JOIN facilities f ON f.id = s.facility_id
	WHERE r.user_id = ?`

// Upcoming returns the user's reservations whose session has not
// finished yet, soonest first.
func (r *ReservationRepo) Upcoming(ctx context.Context, userID uuid.UUID, now time.Time) ([]ReservationDetail, error) {
	return r.list(ctx, userID, now, true)
}

// Past returns the user's finished reservations, most recent first.
func (r *ReservationRepo) Past(ctx context.Context, userID uuid.UUID, now time.Time) ([]ReservationDetail, error) {
	return r.list(ctx, userID, now, false)
}

func (r *ReservationRepo) list(ctx context.Context, userID uuid.UUID, now time.Time, upcoming bool) ([]ReservationDetail, error) {
	// A session is "past" once its end time is behind now. Comparing
	// date and end_time separately keeps the predicate sargable on the
	// (user_id, date) path.
	cond := ` AND (s.date > ? OR (s.date = ? AND s.end_time > ?)) ORDER BY s.date, s.start_time`
	if !upcoming {
		cond = ` AND (s.date < ? OR (s.date = ? AND s.end_time <= ?)) ORDER BY s.date DESC, s.start_time DESC`
	}
	day := dateArg(now)
	clock := model.TimeOfDay(now.UTC().Hour()*60 + now.UTC().Minute())
	rows, err := r.db.QueryContext(ctx, reservationDetailQuery+cond,
		userID.String(), day, day, timeArg(clock))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservationDetail, 0)
	for rows.Next() {
		d, err := scanReservationDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanReservationDetail(scan func(dest ...interface{}) error) (*ReservationDetail, error) {
	var (
		d          ReservationDetail
		rawUser    string
		bonusID    sql.NullInt64
		activityID sql.NullInt64
		facilityID sql.NullInt64
		startRaw   string
		endRaw     string
	)
	err := scan(&d.Reservation.ID, &rawUser, &d.Reservation.SessionID, &bonusID, &d.Reservation.CreatedAt,
		&d.Session.ID, &activityID, &facilityID, &d.Session.Capacity, &d.Session.FreePlaces,
		&d.Session.Date, &startRaw, &endRaw,
		&d.TargetName)
	if err != nil {
		return nil, err
	}
	if d.Reservation.UserID, err = uuid.Parse(rawUser); err != nil {
		return nil, err
	}
	if bonusID.Valid {
		b := uint64(bonusID.Int64)
		d.Reservation.BonusID = &b
	}
	switch {
	case activityID.Valid:
		d.Session.Target = model.ActivityTarget(uint64(activityID.Int64))
	case facilityID.Valid:
		d.Session.Target = model.FacilityTarget(uint64(facilityID.Int64))
	}
	if d.Session.StartTime, err = model.ParseTimeOfDay(startRaw); err != nil {
		return nil, err
	}
	if d.Session.EndTime, err = model.ParseTimeOfDay(endRaw); err != nil {
		return nil, err
	}
	return &d, nil
}
