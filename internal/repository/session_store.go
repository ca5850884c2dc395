package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mgarsanz/unisport/internal/booking"
	"github.com/mgarsanz/unisport/internal/model"
)

// dateArg renders a date for DATE column parameters.
func dateArg(d time.Time) string { return d.UTC().Format("2006-01-02") }

// timeArg renders a clock time for TIME column parameters.
func timeArg(t model.TimeOfDay) string { return t.String() + ":00" }

// scanTarget rebuilds the tagged union from the activity_id XOR
// facility_id column pair. Exactly one must be non-null; anything
// else is a corrupt row.
func scanTarget(activityID, facilityID sql.NullInt64) (model.SessionTarget, error) {
	switch {
	case activityID.Valid && !facilityID.Valid:
		return model.ActivityTarget(uint64(activityID.Int64)), nil
	case facilityID.Valid && !activityID.Valid:
		return model.FacilityTarget(uint64(facilityID.Int64)), nil
	}
	return model.SessionTarget{}, fmt.Errorf("session row violates activity/facility exclusivity")
}

func scanSession(scan func(dest ...interface{}) error) (*model.Session, error) {
	var (
		s          model.Session
		activityID sql.NullInt64
		facilityID sql.NullInt64
		startRaw   string
		endRaw     string
	)
	err := scan(&s.ID, &activityID, &facilityID, &s.Capacity, &s.FreePlaces, &s.Date, &startRaw, &endRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	if s.Target, err = scanTarget(activityID, facilityID); err != nil {
		return nil, err
	}
	if s.StartTime, err = model.ParseTimeOfDay(startRaw); err != nil {
		return nil, err
	}
	if s.EndTime, err = model.ParseTimeOfDay(endRaw); err != nil {
		return nil, err
	}
	return &s, nil
}

const sessionColumns = `id, activity_id, facility_id, capacity, free_places, date, start_time, end_time`

// SessionByID loads a session row.
func (q queries) SessionByID(ctx context.Context, id uint64) (*model.Session, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row.Scan)
}

// FacilitySessionAt finds the facility session matching a cart slot
// by facility, date and exact start/end times.
func (q queries) FacilitySessionAt(ctx context.Context, facilityID uint64, date time.Time, start, end model.TimeOfDay) (*model.Session, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE facility_id = ? AND date = ? AND start_time = ? AND end_time = ?`,
		facilityID, dateArg(date), timeArg(start), timeArg(end))
	return scanSession(row.Scan)
}

// TryReserve performs the atomic check-and-decrement of free_places.
// The WHERE guard makes the check and the mutation a single statement,
// so two concurrent callers racing for the last place cannot both see
// RowsAffected == 1.
func (q queries) TryReserve(ctx context.Context, sessionID uint64) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE sessions SET free_places = free_places - 1
		 WHERE id = ? AND free_places > 0`, sessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release returns one place to the session, capped at capacity.
func (q queries) Release(ctx context.Context, sessionID uint64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE sessions SET free_places = LEAST(free_places + 1, capacity)
		 WHERE id = ?`, sessionID)
	return err
}

// CreateSessions inserts generated sessions in a single statement.
// Passing an empty slice has no effect and returns nil.
func (q queries) CreateSessions(ctx context.Context, sessions []*model.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	query := `INSERT INTO sessions (activity_id, facility_id, capacity, free_places, date, start_time, end_time) VALUES `
	args := make([]interface{}, 0, len(sessions)*7)
	for i, s := range sessions {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		var activityID, facilityID interface{}
		if id, ok := s.Target.ActivityID(); ok {
			activityID = id
		}
		if id, ok := s.Target.FacilityID(); ok {
			facilityID = id
		}
		args = append(args, activityID, facilityID, s.Capacity, s.FreePlaces,
			dateArg(s.Date), timeArg(s.StartTime), timeArg(s.EndTime))
	}
	_, err := q.db.ExecContext(ctx, query, args...)
	return err
}
