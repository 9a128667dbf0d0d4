// Package events defines the wire records carried on a concert's order and
// event topics. Both are self-describing JSON records, never persisted: a
// TicketOrderEvent lives only between the API handler and the Reservation
// Worker; a TicketResultEvent lives only between the Worker and whichever
// API process's Result Consumer is waiting on it.
package events

import "time"

// StatusPending marks an order as not yet decided.
const StatusPending = "pending"

// Result statuses a TicketResultEvent may carry.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// TicketOrderEvent is produced by the Order Producer (§4.B) on the order
// topic, partitioned by ZoneID, and consumed exactly once by a Reservation
// Worker in the worker group.
type TicketOrderEvent struct {
	TicketID  string    `json:"ticket_id"`
	ZoneID    string    `json:"zone_id"`
	ConcertID string    `json:"concert_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// NewTicketOrderEvent builds a pending order event for the given ticket.
func NewTicketOrderEvent(ticketID, zoneID, concertID string) TicketOrderEvent {
	return TicketOrderEvent{
		TicketID:  ticketID,
		ZoneID:    zoneID,
		ConcertID: concertID,
		Timestamp: time.Now().UTC(),
		Status:    StatusPending,
	}
}

// TicketResultEvent is produced by the Reservation Worker on the event
// topic and consumed by every API instance's Result Consumer (§4.C).
// TicketData is populated only on success.
type TicketResultEvent struct {
	TicketID   string             `json:"ticket_id"`
	ZoneID     string             `json:"zone_id"`
	ConcertID  string             `json:"concert_id"`
	Status     string             `json:"status"`
	Message    string             `json:"message,omitempty"`
	Error      string             `json:"error,omitempty"`
	TicketData *TicketDetailEvent `json:"ticket_data,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// TicketDetailEvent mirrors domain.TicketDetail for wire transport, kept
// independent of the domain package so a decode failure on one side never
// couples to the persistence model's tags.
type TicketDetailEvent struct {
	ID                 string    `json:"id"`
	ZoneID             string    `json:"zone_id"`
	ConcertID          string    `json:"concert_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	ConcertName        string    `json:"concert_name"`
	ConcertDescription string    `json:"concert_description"`
	Price              float64   `json:"price"`
	ZoneName           string    `json:"zone_name"`
	ZoneDescription    string    `json:"zone_description"`
}

// Success builds an accepted TicketResultEvent carrying the reserved
// ticket's denormalized detail.
func Success(ticketID, zoneID, concertID string, detail TicketDetailEvent) TicketResultEvent {
	return TicketResultEvent{
		TicketID:   ticketID,
		ZoneID:     zoneID,
		ConcertID:  concertID,
		Status:     StatusSuccess,
		Message:    "reservation accepted",
		TicketData: &detail,
		Timestamp:  time.Now().UTC(),
	}
}

// Failed builds a rejected TicketResultEvent carrying the apperr-mapped
// reason in Error.
func Failed(ticketID, zoneID, concertID, reason string) TicketResultEvent {
	return TicketResultEvent{
		TicketID:  ticketID,
		ZoneID:    zoneID,
		ConcertID: concertID,
		Status:    StatusFailed,
		Error:     reason,
		Timestamp: time.Now().UTC(),
	}
}
