package model

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time within a day, stored as minutes since
// midnight. Sessions keep their calendar date and their start/end
// clock times separately, mirroring the TIME columns in the
// database, so interval comparisons never depend on time zones.
type TimeOfDay int

// ParseTimeOfDay parses a string in "HH:MM" form. Seconds are not
// supported; schedule templates and sessions are minute-granular.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay is ParseTimeOfDay that panics on malformed input. It is
// intended for constants and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Hour returns the hour component (0-23).
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component (0-59).
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders the time as "HH:MM", the same format used in the
// TIME columns and in API payloads.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On combines the clock time with a calendar date and returns the full
// timestamp in UTC. The date's own clock component is ignored.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}
