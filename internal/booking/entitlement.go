package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

// NewProductBonus builds the entitlement created when the payment
// provider confirms a bonus purchase. The validity window follows the
// academic calendar:
//
//	single   – no window; a single Available flag, true until consumed.
//	semester – purchased Jan–Jun: [purchase date, Jun 30 same year];
//	           purchased Jul–Dec: [Sep 1 same year, Dec 31 same year].
//	annual   – purchased Jan–Jun: [Sep 1 previous year, Jun 30 same year];
//	           purchased Jul–Dec: [Sep 1 same year, Jun 30 next year].
//
// Annual windows always begin on September 1 regardless of the exact
// purchase day. Member prices carry a 10% discount.
func NewProductBonus(userID uuid.UUID, def model.Bonus, member bool, purchasedAt time.Time) model.ProductBonus {
	pb := model.ProductBonus{
		UserID:         userID,
		BonusID:        def.ID,
		ActivityID:     def.ActivityID,
		Kind:           def.Kind,
		PurchasedAt:    purchasedAt,
		PricePaidCents: def.PriceCents - MemberDiscountCents(def.PriceCents, member),
	}
	switch def.Kind {
	case model.BonusSingle:
		pb.Available = true
	case model.BonusSemester, model.BonusAnnual:
		begin, end := bonusWindow(def.Kind, purchasedAt)
		pb.DateBegin = &begin
		pb.DateEnd = &end
	}
	return pb
}

// bonusWindow computes the inclusive validity window for period kinds.
// purchasedAt is interpreted in UTC; windows are whole calendar days.
func bonusWindow(kind model.BonusKind, purchasedAt time.Time) (begin, end time.Time) {
	t := purchasedAt.UTC()
	year := t.Year()
	firstHalf := t.Month() <= time.June
	switch kind {
	case model.BonusSemester:
		if firstHalf {
			begin = day(year, t.Month(), t.Day())
			end = day(year, time.June, 30)
		} else {
			begin = day(year, time.September, 1)
			end = day(year, time.December, 31)
		}
	case model.BonusAnnual:
		if firstHalf {
			begin = day(year-1, time.September, 1)
			end = day(year, time.June, 30)
		} else {
			begin = day(year, time.September, 1)
			end = day(year+1, time.June, 30)
		}
	}
	return begin, end
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// IsValidOn reports whether the entitlement can be used on the given
// day. Single-use bonuses are valid while unconsumed; period bonuses
// while date_begin <= day <= date_end, day boundaries inclusive.
func IsValidOn(b model.ProductBonus, at time.Time) bool {
	switch b.Kind {
	case model.BonusSingle:
		return b.Available
	case model.BonusSemester, model.BonusAnnual:
		if b.DateBegin == nil || b.DateEnd == nil {
			return false
		}
		today := day(at.UTC().Year(), at.UTC().Month(), at.UTC().Day())
		return !today.Before(*b.DateBegin) && !today.After(*b.DateEnd)
	}
	return false
}

// firstValidBonus scans the user's entitlements for the activity and
// returns the first one whose validity predicate holds now, or nil.
func firstValidBonus(bonuses []model.ProductBonus, at time.Time) *model.ProductBonus {
	for i := range bonuses {
		if IsValidOn(bonuses[i], at) {
			return &bonuses[i]
		}
	}
	return nil
}

// MemberDiscountCents returns the discount applied to a bonus price
// for members of the university community: 10% of the list price,
// rounded half up to the nearest cent. Non-members get no discount.
func MemberDiscountCents(priceCents uint32, member bool) uint32 {
	if !member {
		return 0
	}
	return (priceCents + 5) / 10
}
