package model

import "time"

// Schedule is a weekly recurring slot attached to an activity or a
// facility. Concrete bookable sessions are generated from schedules
// over a date range; the schedule itself carries no date.
//
// Fields:
//  ID        – primary key identifier.
//  DayOfWeek – weekday on which the slot recurs.
//  HourBegin – start clock time of the slot.
//  HourEnd   – end clock time of the slot (must be after HourBegin).
type Schedule struct {
	ID        uint64       // schedules.id
	DayOfWeek time.Weekday // schedules.day_of_week
	HourBegin TimeOfDay    // schedules.hour_begin
	HourEnd   TimeOfDay    // schedules.hour_end
}
