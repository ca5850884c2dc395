package booking

import (
	"time"

	"github.com/mgarsanz/unisport/internal/model"
)

// hourBlock is the length of one rentable facility slot.
const hourBlock = 60

// ActivitySessions expands an activity's weekly schedules into
// concrete sessions over [from, to], both dates inclusive. Every
// session starts with the full capacity free. Pure; the caller
// persists the result through Service.CreateSessions.
func ActivitySessions(activityID uint64, schedules []model.Schedule, capacity int, from, to time.Time) []*model.Session {
	var out []*model.Session
	forEachDay(from, to, func(d time.Time) {
		for _, sch := range schedules {
			if sch.DayOfWeek != d.Weekday() {
				continue
			}
			out = append(out, &model.Session{
				Target:     model.ActivityTarget(activityID),
				Capacity:   capacity,
				FreePlaces: capacity,
				Date:       d,
				StartTime:  sch.HourBegin,
				EndTime:    sch.HourEnd,
			})
		}
	})
	return out
}

// FacilitySessions expands a facility's weekly schedules into
// capacity-1 sessions over [from, to], splitting each schedule into
// one-hour blocks. A schedule whose length is not a whole number of
// hours yields blocks only up to the last full hour.
func FacilitySessions(facilityID uint64, schedules []model.Schedule, from, to time.Time) []*model.Session {
	var out []*model.Session
	forEachDay(from, to, func(d time.Time) {
		for _, sch := range schedules {
			if sch.DayOfWeek != d.Weekday() {
				continue
			}
			for start := sch.HourBegin; start+hourBlock <= sch.HourEnd; start += hourBlock {
				out = append(out, &model.Session{
					Target:     model.FacilityTarget(facilityID),
					Capacity:   1,
					FreePlaces: 1,
					Date:       d,
					StartTime:  start,
					EndTime:    start + hourBlock,
				})
			}
		}
	})
	return out
}

func forEachDay(from, to time.Time, fn func(d time.Time)) {
	from = truncateDay(from)
	to = truncateDay(to)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
