package store

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/ticketline/reservation-core/internal/domain"
)

// Store is the bun-backed implementation of domain.EntityStore.
type Store struct {
	db *bun.DB
}

// NewStore wraps an already-connected bun.DB.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Venues() domain.VenueRepository     { return &venueRepository{db: s.db} }
func (s *Store) Concerts() domain.ConcertRepository { return &concertRepository{db: s.db} }
func (s *Store) Zones() domain.ZoneRepository       { return &zoneRepository{db: s.db} }
func (s *Store) Tickets() domain.TicketRepository   { return &ticketRepository{db: s.db} }

// ReserveTickets runs every batch's bulk insert and matching seat
// decrement inside one transaction, per §4.F: "issue one bulk insert of
// all pending Tickets grouped by zone_id ... issue one
// Zone.available_seats -= count update per zone ... commit
// transactionally." A failure anywhere rolls back the whole set so a
// partially-applied batch never reaches disk.
func (s *Store) ReserveTickets(ctx context.Context, batches []domain.ReservedBatch) error {
	if len(batches) == 0 {
		return nil
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		tickets := &ticketRepository{db: tx}
		zones := &zoneRepository{db: tx}

		for _, batch := range batches {
			if len(batch.Tickets) == 0 {
				continue
			}
			if err := tickets.BulkInsert(ctx, batch.Tickets); err != nil {
				return err
			}
			if err := zones.DecrementSeats(ctx, batch.ZoneID, len(batch.Tickets)); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ domain.EntityStore = (*Store)(nil)
