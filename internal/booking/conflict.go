package booking

import (
	"time"

	"github.com/mgarsanz/unisport/internal/model"
)

// BookedSlot is the engine's view of one of a user's existing
// reservations: just the session identity and its time interval.
// The store materializes these with a join so conflict checks never
// load full session rows.
type BookedSlot struct {
	SessionID uint64
	Date      time.Time
	Start     model.TimeOfDay
	End       model.TimeOfDay
}

// CartSlot is one facility slot chosen for checkout. The cart is an
// explicit, caller-owned value; the engine keeps no per-request state.
type CartSlot struct {
	FacilityID uint64
	Date       time.Time
	Start      model.TimeOfDay
	End        model.TimeOfDay
}

// Cart is a batch of facility slots checked out together.
type Cart []CartSlot

// sameDate reports whether two timestamps fall on the same calendar
// day. Only reservations on the same day can conflict; intervals are
// clock times, not absolute instants.
func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// overlap is the half-open interval test: [aStart,aEnd) intersects
// [bStart,bEnd). Back-to-back slots (one ending exactly when the
// other starts) do not overlap.
func overlap(aStart, aEnd, bStart, bEnd model.TimeOfDay) bool {
	return aStart < bEnd && aEnd > bStart
}

// Overlaps reports whether the requested interval on the given date
// intersects any of the user's existing reservations. Pure; called
// before any mutation so a conflict never partially commits.
func Overlaps(existing []BookedSlot, date time.Time, start, end model.TimeOfDay) bool {
	for _, r := range existing {
		if sameDate(r.Date, date) && overlap(start, end, r.Start, r.End) {
			return true
		}
	}
	return false
}

// AnyPairwiseOverlap reports whether any two slots of the cart fall on
// the same date and intersect. Pure; used before facility checkout so
// a self-conflicting cart is rejected before touching any session.
func AnyPairwiseOverlap(cart Cart) bool {
	for i := 0; i < len(cart); i++ {
		for j := i + 1; j < len(cart); j++ {
			if sameDate(cart[i].Date, cart[j].Date) &&
				overlap(cart[i].Start, cart[i].End, cart[j].Start, cart[j].End) {
				return true
			}
		}
	}
	return false
}
