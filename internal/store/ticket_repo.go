package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/domain"
)

// ticketRepository implements domain.TicketRepository over bun.
type ticketRepository struct {
	db bun.IDB
}

// BulkInsert inserts tickets idempotently: ON CONFLICT (id) DO NOTHING
// means replaying an already-persisted batch after a crash mid-commit is
// safe, per §4.F.
func (r *ticketRepository) BulkInsert(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	models := make([]*ticketModel, len(tickets))
	for i, t := range tickets {
		models[i] = ticketModelFromEntity(t)
	}
	_, err := r.db.NewInsert().Model(&models).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "store: bulk insert tickets", err)
	}
	return nil
}

func (r *ticketRepository) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	m := new(ticketModel)
	if err := r.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "ticket not found")
		}
		return nil, apperr.Wrap(apperr.KindPersistence, "store: get ticket", err)
	}
	return m.toEntity(), nil
}

func (r *ticketRepository) ListByZone(ctx context.Context, zoneID string) ([]*domain.Ticket, error) {
	var models []ticketModel
	if err := r.db.NewSelect().Model(&models).Where("zone_id = ?", zoneID).Scan(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "store: list tickets by zone", err)
	}
	out := make([]*domain.Ticket, 0, len(models))
	for i := range models {
		out = append(out, models[i].toEntity())
	}
	return out, nil
}

func (r *ticketRepository) ListByConcert(ctx context.Context, concertID string) ([]*domain.Ticket, error) {
	var models []ticketModel
	err := r.db.NewSelect().
		Model(&models).
		Join("JOIN zones AS z ON z.id = t.zone_id").
		Where("z.concert_id = ?", concertID).
		Scan(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "store: list tickets by concert", err)
	}
	out := make([]*domain.Ticket, 0, len(models))
	for i := range models {
		out = append(out, models[i].toEntity())
	}
	return out, nil
}
