package domain

import (
	"fmt"
	"time"
)

// Zone is a priced seating section within a Concert. ZoneNumber fixes the
// Kafka partition the zone's order/event traffic lands on
// (partition = ZoneNumber-1); it must be unique within its concert and in
// [1, Concert.NumZones].
type Zone struct {
	ID             string
	ConcertID      string
	Name           string
	Price          float64
	ZoneCapacity   int
	AvailableSeats int
	ZoneNumber     int
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewZone carries the fields required to create a Zone.
type NewZone struct {
	ConcertID    string
	Name         string
	Price        float64
	ZoneCapacity int
	ZoneNumber   int
	Description  string
}

// Partition returns the Kafka partition this zone's traffic is pinned to.
// ZoneNumber is 1-based; partitions are 0-based.
func (z Zone) Partition() int {
	return z.ZoneNumber - 1
}

// Validate checks the invariants from §3: 0 <= available_seats <=
// zone_capacity and zone_number within [1, numZones].
func (z Zone) Validate(numZones int) error {
	if z.AvailableSeats < 0 || z.AvailableSeats > z.ZoneCapacity {
		return fmt.Errorf("zone %s: available_seats %d out of range [0,%d]", z.ID, z.AvailableSeats, z.ZoneCapacity)
	}
	if z.ZoneNumber < 1 || z.ZoneNumber > numZones {
		return fmt.Errorf("zone %s: zone_number %d out of range [1,%d]", z.ID, z.ZoneNumber, numZones)
	}
	return nil
}
