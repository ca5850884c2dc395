package model

import (
	"time"

	"github.com/google/uuid"
)

// BonusKind enumerates the kinds of bonuses sold for an activity.
// Single-use bonuses grant one booking; semester and annual bonuses
// grant unlimited bookings within an academic validity window.
type BonusKind string

const (
	BonusSingle   BonusKind = "SINGLE"
	BonusSemester BonusKind = "SEMESTER"
	BonusAnnual   BonusKind = "ANNUAL"
)

// Bonus is a purchasable bonus definition in the catalog. Each
// definition belongs to exactly one activity.
//
// Fields:
//  ID         – primary key identifier.
//  ActivityID – activity the bonus grants bookings for.
//  Kind       – single-use, semester or annual.
//  PriceCents – list price in cents before any member discount.
type Bonus struct {
	ID         uint64    // bonuses.id
	ActivityID uint64    // bonuses.activity_id
	Kind       BonusKind // bonuses.bonus_type
	PriceCents uint32    // bonuses.price_cents
}

// ProductBonus is a bonus instance owned by a user, created when the
// payment provider confirms a purchase. It is the entitlement checked
// by the booking engine. Kind and ActivityID are denormalized from the
// bonus definition so validity can be decided without a join.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owner of the entitlement.
//  BonusID        – bonus definition this was purchased from.
//  ActivityID     – activity the entitlement applies to.
//  Kind           – kind copied from the definition at purchase time.
//  Available      – single-use only: true until consumed by a booking.
//  DateBegin      – period kinds only: first valid day (inclusive).
//  DateEnd        – period kinds only: last valid day (inclusive).
//  PurchasedAt    – when the payment was confirmed.
//  PricePaidCents – amount actually paid after discounts.
type ProductBonus struct {
	ID             uint64     // product_bonuses.id
	UserID         uuid.UUID  // product_bonuses.user_id
	BonusID        uint64     // product_bonuses.bonus_id
	ActivityID     uint64     // product_bonuses.activity_id
	Kind           BonusKind  // product_bonuses.bonus_type
	Available      bool       // product_bonuses.available
	DateBegin      *time.Time // product_bonuses.date_begin (nullable)
	DateEnd        *time.Time // product_bonuses.date_end (nullable)
	PurchasedAt    time.Time  // product_bonuses.purchased_at
	PricePaidCents uint32     // product_bonuses.price_paid_cents
}
