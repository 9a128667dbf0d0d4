package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/domain"
)

// concertRepository implements domain.ConcertRepository over bun.
type concertRepository struct {
	db bun.IDB
}

func (r *concertRepository) Create(ctx context.Context, params *domain.NewConcert) (*domain.Concert, error) {
	m := &concertModel{
		VenueID:     params.VenueID,
		Name:        params.Name,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		NumZones:    params.NumZones,
		Description: params.Description,
		Location:    params.Location,
	}
	if _, err := r.db.NewInsert().Model(m).Returning("*").Exec(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "store: create concert", err)
	}
	return m.toEntity(), nil
}

// Get retrieves a Concert with its Zones eagerly attached, per §4.H.
func (r *concertRepository) Get(ctx context.Context, id string) (*domain.Concert, error) {
	cm := new(concertModel)
	if err := r.db.NewSelect().Model(cm).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "concert not found")
		}
		return nil, apperr.Wrap(apperr.KindPersistence, "store: get concert", err)
	}

	var zoneModels []zoneModel
	if err := r.db.NewSelect().Model(&zoneModels).Where("concert_id = ?", id).Order("zone_number ASC").Scan(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "store: list zones for concert", err)
	}

	concert := cm.toEntity()
	concert.Zones = make([]domain.Zone, 0, len(zoneModels))
	for i := range zoneModels {
		concert.Zones = append(concert.Zones, *zoneModels[i].toEntity())
	}
	return concert, nil
}
