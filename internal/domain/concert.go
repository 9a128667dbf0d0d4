package domain

import "time"

// Concert belongs to exactly one Venue and exclusively owns its Zones
// (cascade on delete). NumZones is immutable after topic provisioning: it
// fixes the partition count of the concert's order and event topics.
type Concert struct {
	ID          string
	VenueID     string
	Name        string
	StartTime   time.Time
	EndTime     time.Time
	NumZones    int
	Description string
	Location    string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Zones is eagerly attached by ConcertRepository.Get, per §4.H.
	Zones []Zone
}

// NewConcert carries the fields required to create a Concert.
type NewConcert struct {
	VenueID     string
	Name        string
	StartTime   time.Time
	EndTime     time.Time
	NumZones    int
	Description string
	Location    string
}
