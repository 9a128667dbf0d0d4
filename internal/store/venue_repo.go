package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/domain"
)

// venueRepository implements domain.VenueRepository over bun.
type venueRepository struct {
	db bun.IDB
}

func (r *venueRepository) Create(ctx context.Context, params *domain.NewVenue) (*domain.Venue, error) {
	m := &venueModel{Name: params.Name, Location: params.Location, Capacity: params.Capacity}
	if _, err := r.db.NewInsert().Model(m).Returning("*").Exec(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "store: create venue", err)
	}
	return m.toEntity(), nil
}

func (r *venueRepository) Get(ctx context.Context, id string) (*domain.Venue, error) {
	m := new(venueModel)
	err := r.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "venue not found")
		}
		return nil, apperr.Wrap(apperr.KindPersistence, "store: get venue", err)
	}
	return m.toEntity(), nil
}
