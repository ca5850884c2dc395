package model

import (
	"time"
)

// TargetKind discriminates what a session is booked against.
type TargetKind uint8

const (
	// TargetActivity marks a session of a group activity.
	TargetActivity TargetKind = iota + 1
	// TargetFacility marks a rentable facility slot.
	TargetFacility
)

// SessionTarget is a tagged union pointing at exactly one of an
// activity or a facility. The zero value is invalid; construct values
// with ActivityTarget or FacilityTarget so the exclusivity invariant
// holds structurally rather than by convention.
type SessionTarget struct {
	kind TargetKind
	id   uint64
}

// ActivityTarget returns a target referencing the given activity.
func ActivityTarget(activityID uint64) SessionTarget {
	return SessionTarget{kind: TargetActivity, id: activityID}
}

// FacilityTarget returns a target referencing the given facility.
func FacilityTarget(facilityID uint64) SessionTarget {
	return SessionTarget{kind: TargetFacility, id: facilityID}
}

// Kind reports which variant the target holds.
func (t SessionTarget) Kind() TargetKind { return t.kind }

// ActivityID returns the referenced activity ID and true when the
// target is an activity.
func (t SessionTarget) ActivityID() (uint64, bool) {
	return t.id, t.kind == TargetActivity
}

// FacilityID returns the referenced facility ID and true when the
// target is a facility.
func (t SessionTarget) FacilityID() (uint64, bool) {
	return t.id, t.kind == TargetFacility
}

// Session is a single bookable time slot of either an activity or a
// facility. Sessions are generated in bulk from weekly schedules.
// FreePlaces is only ever mutated through the capacity operations of
// the booking store (atomic check-and-decrement, capped increment);
// it stays within [0, Capacity] at all times.
//
// Fields:
//  ID         – primary key identifier.
//  Target     – the activity or facility this slot belongs to.
//  Capacity   – total number of places (positive).
//  FreePlaces – places still available (0 ≤ FreePlaces ≤ Capacity).
//  Date       – calendar date of the slot (UTC midnight).
//  StartTime  – start clock time.
//  EndTime    – end clock time (after StartTime).
type Session struct {
	ID         uint64        // sessions.id
	Target     SessionTarget // sessions.activity_id XOR sessions.facility_id
	Capacity   int           // sessions.capacity
	FreePlaces int           // sessions.free_places
	Date       time.Time     // sessions.date
	StartTime  TimeOfDay     // sessions.start_time
	EndTime    TimeOfDay     // sessions.end_time
}

// IsFull reports whether no free places remain.
func (s *Session) IsFull() bool { return s.FreePlaces == 0 }

// StartsAt returns the full start timestamp (date + start time, UTC).
func (s *Session) StartsAt() time.Time { return s.StartTime.On(s.Date) }

// EndsAt returns the full end timestamp (date + end time, UTC).
func (s *Session) EndsAt() time.Time { return s.EndTime.On(s.Date) }
