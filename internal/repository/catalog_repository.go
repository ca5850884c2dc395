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

// CatalogRepo provides data access to activities, facilities and
// their weekly schedules. Catalog rows are written by administrators
// and read by everyone; none of them participate in the booking
// engine's transactions.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a new CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// CreateActivity inserts an activity and populates its generated ID.
func (r *CatalogRepo) CreateActivity(ctx context.Context, a *model.Activity) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (name, location, description, activity_type) VALUES (?, ?, ?, ?)`,
		a.Name, a.Location, a.Description, string(a.Type))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// CreateFacility inserts facility rows. A facility registered with
// more than one unit is expanded into that many independent
// capacity-1 facilities, each suffixed with its unit number; the
// returned slice holds every row created.
func (r *CatalogRepo) CreateFacility(ctx context.Context, f *model.Facility) ([]model.Facility, error) {
	if f.Units <= 1 {
		f.Units = 1
		if err := r.insertFacility(ctx, f); err != nil {
			return nil, err
		}
		return []model.Facility{*f}, nil
	}
	out := make([]model.Facility, 0, f.Units)
	for i := uint32(1); i <= f.Units; i++ {
		unit := model.Facility{
			Name:           fmt.Sprintf("%s %d", f.Name, i),
			Description:    f.Description,
			HourPriceCents: f.HourPriceCents,
			Type:           f.Type,
			Units:          1,
		}
		if err := r.insertFacility(ctx, &unit); err != nil {
			return nil, err
		}
		out = append(out, unit)
	}
	return out, nil
}

func (r *CatalogRepo) insertFacility(ctx context.Context, f *model.Facility) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO facilities (name, description, hour_price_cents, facility_type, units) VALUES (?, ?, ?, ?, ?)`,
		f.Name, f.Description, f.HourPriceCents, string(f.Type), f.Units)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// GetActivity fetches an activity by ID.
func (r *CatalogRepo) GetActivity(ctx context.Context, id uint64) (*model.Activity, error) {
	var a model.Activity
	var typ string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, location, description, activity_type FROM activities WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Location, &a.Description, &typ)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	a.Type = model.ActivityType(typ)
	return &a, nil
}

// GetFacility fetches a facility by ID.
func (r *CatalogRepo) GetFacility(ctx context.Context, id uint64) (*model.Facility, error) {
	var f model.Facility
	var typ string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, hour_price_cents, facility_type, units FROM facilities WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.Description, &f.HourPriceCents, &typ, &f.Units)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	f.Type = model.FacilityType(typ)
	return &f, nil
}

// ListActivities returns all activities ordered by name.
func (r *CatalogRepo) ListActivities(ctx context.Context) ([]model.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, location, description, activity_type FROM activities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Activity, 0)
	for rows.Next() {
		var a model.Activity
		var typ string
		if err := rows.Scan(&a.ID, &a.Name, &a.Location, &a.Description, &typ); err != nil {
			return nil, err
		}
		a.Type = model.ActivityType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListFacilities returns all facilities ordered by name.
func (r *CatalogRepo) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, hour_price_cents, facility_type, units FROM facilities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Facility, 0)
	for rows.Next() {
		var f model.Facility
		var typ string
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.HourPriceCents, &typ, &f.Units); err != nil {
			return nil, err
		}
		f.Type = model.FacilityType(typ)
		out = append(out, f)
	}
	return out, rows.Err()
}

// AddSchedule attaches a weekly schedule to an activity or facility
// through the join tables and returns the schedule with its ID set.
func (r *CatalogRepo) AddSchedule(ctx context.Context, target model.SessionTarget, s *model.Schedule) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO schedules (day_of_week, hour_begin, hour_end) VALUES (?, ?, ?)`,
		int(s.DayOfWeek), timeArg(s.HourBegin), timeArg(s.HourEnd))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	if activityID, ok := target.ActivityID(); ok {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO activity_schedules (activity_id, schedule_id) VALUES (?, ?)`, activityID, s.ID)
		return err
	}
	facilityID, _ := target.FacilityID()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO facility_schedules (facility_id, schedule_id) VALUES (?, ?)`, facilityID, s.ID)
	return err
}

// SchedulesFor returns the weekly schedules attached to an activity
// or facility, ordered by day then start time.
func (r *CatalogRepo) SchedulesFor(ctx context.Context, target model.SessionTarget) ([]model.Schedule, error) {
	var (
		query string
		id    uint64
	)
	if activityID, ok := target.ActivityID(); ok {
		id = activityID
		query = `SELECT s.id, s.day_of_week, s.hour_begin, s.hour_end
		         FROM schedules s JOIN activity_schedules j ON j.schedule_id = s.id
		         WHERE j.activity_id = ? ORDER BY s.day_of_week, s.hour_begin`
	} else {
		id, _ = target.FacilityID()
		query = `SELECT s.id, s.day_of_week, s.hour_begin, s.hour_end
		         FROM schedules s JOIN facility_schedules j ON j.schedule_id = s.id
		         WHERE j.facility_id = ? ORDER BY s.day_of_week, s.hour_begin`
	}
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Schedule, 0)
	for rows.Next() {
		var (
			s        model.Schedule
			dow      int
			beginRaw string
			endRaw   string
		)
		if err := rows.Scan(&s.ID, &dow, &beginRaw, &endRaw); err != nil {
			return nil, err
		}
		s.DayOfWeek = time.Weekday(dow)
		if s.HourBegin, err = model.ParseTimeOfDay(beginRaw); err != nil {
			return nil, err
		}
		if s.HourEnd, err = model.ParseTimeOfDay(endRaw); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListSessions returns the sessions of an activity or facility from
// the given date onward, ordered by date and start time. Used by the
// browse endpoints so members can pick a slot.
func (r *CatalogRepo) ListSessions(ctx context.Context, target model.SessionTarget, from time.Time) ([]model.Session, error) {
	var (
		column string
		id     uint64
	)
	if activityID, ok := target.ActivityID(); ok {
		column, id = "activity_id", activityID
	} else {
		fid, _ := target.FacilityID()
		column, id = "facility_id", fid
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE `+column+` = ? AND date >= ?
		 ORDER BY date, start_time`, id, dateArg(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
