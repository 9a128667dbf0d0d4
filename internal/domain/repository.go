package domain

import "context"

// VenueRepository is the data access interface for Venues.
type VenueRepository interface {
	Create(ctx context.Context, params *NewVenue) (*Venue, error)
	Get(ctx context.Context, id string) (*Venue, error)
}

// ConcertRepository is the data access interface for Concerts. Get eagerly
// attaches the concert's zone list, per §4.H.
type ConcertRepository interface {
	Create(ctx context.Context, params *NewConcert) (*Concert, error)
	// Get retrieves a Concert with its Zones eagerly attached.
	//
	// Possible errors: KindNotFound if the concert does not exist.
	Get(ctx context.Context, id string) (*Concert, error)
}

// ZoneRepository is the data access interface for Zones.
type ZoneRepository interface {
	// Create persists a new Zone. Callers must ensure the concert's
	// existing zone count is < num_zones and zone_number is unique
	// within the concert before calling; the store also enforces this
	// with a unique index as a backstop.
	Create(ctx context.Context, params *NewZone) (*Zone, error)

	// Get retrieves a Zone by id.
	//
	// Possible errors: KindNotFound if the zone does not exist.
	Get(ctx context.Context, id string) (*Zone, error)

	// DecrementSeats atomically subtracts n from available_seats in the
	// same transaction as a Ticket bulk insert; see
	// EntityStore.ReserveTickets.
	DecrementSeats(ctx context.Context, id string, n int) error
}

// TicketRepository is the data access interface for Tickets.
type TicketRepository interface {
	// BulkInsert inserts tickets idempotently (ON CONFLICT (id) DO
	// NOTHING on the primary key), so reprocessing a message that was
	// already persisted is a no-op rather than an error.
	BulkInsert(ctx context.Context, tickets []Ticket) error

	Get(ctx context.Context, id string) (*Ticket, error)
	ListByZone(ctx context.Context, zoneID string) ([]*Ticket, error)
	ListByConcert(ctx context.Context, concertID string) ([]*Ticket, error)
}

// ReservedBatch is one zone's worth of accepted reservations awaiting a
// single bulk-insert-plus-decrement transaction.
type ReservedBatch struct {
	ZoneID  string
	Tickets []Ticket
}

// EntityStore is the narrow, synchronous-looking façade over the relational
// store, per §4.H. The core is agnostic to which store implements it; tests
// substitute a fake.
type EntityStore interface {
	Venues() VenueRepository
	Concerts() ConcertRepository
	Zones() ZoneRepository
	Tickets() TicketRepository

	// ReserveTickets inserts every batch's tickets and decrements the
	// matching zone's available_seats by len(batch.Tickets), all within
	// a single transaction, per §4.F ("issue one bulk insert ... issue
	// one Zone.available_seats -= count per zone; commit
	// transactionally").
	ReserveTickets(ctx context.Context, batches []ReservedBatch) error
}
