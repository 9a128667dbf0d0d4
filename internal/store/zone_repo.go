package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/domain"
)

// zoneRepository implements domain.ZoneRepository over bun.
type zoneRepository struct {
	db bun.IDB
}

func (r *zoneRepository) Create(ctx context.Context, params *domain.NewZone) (*domain.Zone, error) {
	m := &zoneModel{
		ConcertID:      params.ConcertID,
		Name:           params.Name,
		Price:          params.Price,
		ZoneCapacity:   params.ZoneCapacity,
		AvailableSeats: params.ZoneCapacity,
		ZoneNumber:     params.ZoneNumber,
		Description:    params.Description,
	}
	if _, err := r.db.NewInsert().Model(m).Returning("*").Exec(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "store: create zone", err)
	}
	return m.toEntity(), nil
}

func (r *zoneRepository) Get(ctx context.Context, id string) (*domain.Zone, error) {
	m := new(zoneModel)
	if err := r.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "zone not found")
		}
		return nil, apperr.Wrap(apperr.KindPersistence, "store: get zone", err)
	}
	return m.toEntity(), nil
}

// DecrementSeats is called by Store.ReserveTickets, so the decrement shares
// the ticket insert's transaction. It returns a capacity error when fewer
// than n seats remain.
func (r *zoneRepository) DecrementSeats(ctx context.Context, id string, n int) error {
	res, err := r.db.NewUpdate().
		Model((*zoneModel)(nil)).
		Set("available_seats = available_seats - ?", n).
		Where("id = ? AND available_seats >= ?", id, n).
		Exec(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "store: decrement zone seats", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "store: decrement zone seats rows affected", err)
	}
	if affected == 0 {
		return apperr.Capacity(id)
	}
	return nil
}
