package domain

import "time"

// Ticket is created only by the Batch Persister (§4.F) once a reservation is
// durably accepted. It implies exactly one seat consumed from its Zone.
type Ticket struct {
	ID        string
	ZoneID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TicketDetail is the denormalized reply DTO returned to clients and cached
// for result replay. It is built by the Reservation Worker from the Zone and
// Concert snapshot at acceptance time, per §4.E step 4.
type TicketDetail struct {
	ID                 string    `json:"id"`
	ZoneID             string    `json:"zoneId"`
	ConcertID          string    `json:"concertId"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	ConcertName        string    `json:"concertName"`
	ConcertDescription string    `json:"concertDescription"`
	Price              float64   `json:"price"`
	ZoneName           string    `json:"zoneName"`
	ZoneDescription    string    `json:"zoneDescription"`
}
