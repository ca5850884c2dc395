package model

// ActivityType classifies an activity. The set is closed; the
// database stores the string value.
type ActivityType string

const (
	ActivityTerrestrial ActivityType = "TERRESTRIAL"
	ActivityAquatic     ActivityType = "AQUATIC"
)

// Activity represents a group activity offered by the sport centre
// (e.g. a spinning class). Members book activity sessions through a
// purchased bonus. Activities carry weekly schedules from which
// sessions are generated.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the activity.
//  Location    – where the activity takes place.
//  Description – free-form description.
//  Type        – activity classification (terrestrial or aquatic).
type Activity struct {
	ID          uint64       // activities.id
	Name        string       // activities.name
	Location    string       // activities.location
	Description string       // activities.description
	Type        ActivityType // activities.activity_type
}
