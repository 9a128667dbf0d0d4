package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/ticketline/reservation-core/internal/domain"
)

// venueModel is the bun table model for venues.
type venueModel struct {
	bun.BaseModel `bun:"table:venues,alias:v"`

	ID        string    `bun:",pk,type:uuid,default:gen_random_uuid()"`
	Name      string    `bun:",notnull,type:varchar(255)"`
	Location  string    `bun:",type:varchar(255)"`
	Capacity  int       `bun:",notnull"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

func (m *venueModel) toEntity() *domain.Venue {
	return &domain.Venue{
		ID:        m.ID,
		Name:      m.Name,
		Location:  m.Location,
		Capacity:  m.Capacity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// concertModel is the bun table model for concerts. Deleting a venue
// cascades to its concerts per §3's ownership rules.
type concertModel struct {
	bun.BaseModel `bun:"table:concerts,alias:c"`

	ID          string    `bun:",pk,type:uuid,default:gen_random_uuid()"`
	VenueID     string    `bun:",notnull,type:uuid"`
	Name        string    `bun:",notnull,type:varchar(255)"`
	StartTime   time.Time `bun:",notnull"`
	EndTime     time.Time `bun:",notnull"`
	NumZones    int       `bun:",notnull"`
	Description string    `bun:",type:text"`
	Location    string    `bun:",type:varchar(255)"`
	CreatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp"`

	Venue *venueModel `bun:"rel:belongs-to,join:venue_id=id,on_delete:CASCADE"`
}

func (m *concertModel) toEntity() *domain.Concert {
	return &domain.Concert{
		ID:          m.ID,
		VenueID:     m.VenueID,
		Name:        m.Name,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		NumZones:    m.NumZones,
		Description: m.Description,
		Location:    m.Location,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// zoneModel is the bun table model for zones. A zone's tickets restrict
// deletion (on_delete:RESTRICT) — a zone with issued tickets cannot be
// dropped out from under its ownership record.
type zoneModel struct {
	bun.BaseModel `bun:"table:zones,alias:z"`

	ID             string    `bun:",pk,type:uuid,default:gen_random_uuid()"`
	ConcertID      string    `bun:",notnull,type:uuid"`
	Name           string    `bun:",notnull,type:varchar(255)"`
	Price          float64   `bun:",notnull,type:decimal(10,2)"`
	ZoneCapacity   int       `bun:",notnull"`
	AvailableSeats int       `bun:",notnull"`
	ZoneNumber     int       `bun:",notnull"`
	Description    string    `bun:",type:text"`
	CreatedAt      time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:",nullzero,notnull,default:current_timestamp"`

	Concert *concertModel `bun:"rel:belongs-to,join:concert_id=id,on_delete:CASCADE"`
}

func (m *zoneModel) toEntity() *domain.Zone {
	return &domain.Zone{
		ID:             m.ID,
		ConcertID:      m.ConcertID,
		Name:           m.Name,
		Price:          m.Price,
		ZoneCapacity:   m.ZoneCapacity,
		AvailableSeats: m.AvailableSeats,
		ZoneNumber:     m.ZoneNumber,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ticketModel is the bun table model for tickets.
type ticketModel struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID        string    `bun:",pk,type:uuid"`
	ZoneID    string    `bun:",notnull,type:uuid"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`

	Zone *zoneModel `bun:"rel:belongs-to,join:zone_id=id,on_delete:RESTRICT"`
}

func (m *ticketModel) toEntity() *domain.Ticket {
	return &domain.Ticket{
		ID:        m.ID,
		ZoneID:    m.ZoneID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ticketModelFromEntity(t domain.Ticket) *ticketModel {
	return &ticketModel{ID: t.ID, ZoneID: t.ZoneID}
}
