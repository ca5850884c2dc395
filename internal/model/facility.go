package model

// FacilityType classifies a facility by placement. The set is closed;
// the database stores the string value.
type FacilityType string

const (
	FacilityIndoor  FacilityType = "INDOOR"
	FacilityOutdoor FacilityType = "OUTDOOR"
)

// Facility is a rentable installation (a tennis court, a squash
// court). Facility sessions are rented by the hour and do not consume
// a bonus. A facility registered with more than one physical unit is
// expanded into that many independent capacity-1 facilities at
// creation time, each suffixed with its unit number.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name, unique per sport centre.
//  Description    – free-form description.
//  HourPriceCents – rental price per one-hour block, in cents.
//  Type           – indoor or outdoor.
//  Units          – number of physical instances registered together.
type Facility struct {
	ID             uint64       // facilities.id
	Name           string       // facilities.name
	Description    string       // facilities.description
	HourPriceCents uint32       // facilities.hour_price_cents
	Type           FacilityType // facilities.facility_type
	Units          uint32       // facilities.units
}
