// Package domain holds the Venue, Concert, Zone, and Ticket entities plus the
// repository interfaces the Entity Store (§4.H) implements. Cyclic domain
// references are expressed unidirectionally, child to parent, with explicit
// foreign-key fields — there is no runtime object graph to traverse.
package domain

import "time"

// Venue is a physical location that hosts concerts. Mutated only through
// admin paths; out of scope beyond the fields the core denormalizes into
// TicketDetail.
type Venue struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewVenue carries the fields required to create a Venue.
type NewVenue struct {
	Name     string
	Location string
	Capacity int
}
