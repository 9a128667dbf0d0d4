package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/domain"
	"github.com/ticketline/reservation-core/internal/events"
	"github.com/ticketline/reservation-core/internal/topic"
)

type createTicketRequest struct {
	ZoneID    string `json:"zone_id"`
	ConcertID string `json:"concert_id"`
}

// CreateTicket implements the synchronous-over-asynchronous facade: it
// emits a TicketOrderEvent and blocks on the correlator until the
// Reservation Worker's result arrives or AwaitTimeout elapses.
func (h *Handlers) CreateTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	if req.ZoneID == "" || req.ConcertID == "" {
		writeError(w, h.Log, apperr.New(apperr.KindValidation, "zone_id and concert_id are required"))
		return
	}

	zone, err := h.partitionForZone(ctx, req.ZoneID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if zone.ConcertID != req.ConcertID {
		writeError(w, h.Log, apperr.New(apperr.KindValidation, "zone does not belong to concert"))
		return
	}

	ticketID := uuid.NewString()
	order := events.NewTicketOrderEvent(ticketID, req.ZoneID, req.ConcertID)

	ok, err := h.Producer.ProduceOrder(ctx, topic.OrderTopic(req.ConcertID), zone.Partition(), order)
	if err != nil || !ok {
		writeError(w, h.Log, apperr.Wrap(apperr.KindTransport, "failed to submit order", err))
		return
	}

	awaitCtx, cancel := context.WithTimeout(ctx, h.AwaitTimeout)
	defer cancel()
	result, ok := h.Correlator.Await(awaitCtx, ticketID)
	if !ok {
		writeError(w, h.Log, apperr.New(apperr.KindTimeout, "timed out waiting for reservation result"))
		return
	}

	respondWithResult(w, h.Log, result)
}

func respondWithResult(w http.ResponseWriter, log *slog.Logger, result events.TicketResultEvent) {
	if result.Status == events.StatusFailed {
		writeError(w, log, apperr.New(apperr.KindCapacity, result.Error))
		return
	}
	writeJSON(w, http.StatusCreated, eventDetailToDTO(result.TicketData))
}

// GetTicket replays a finished result from the cache when available (the
// ~1h window a client that already timed out can still GET its outcome),
// and otherwise reconstructs the detail from the store.
func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	if result, ok := h.Cache.GetResult(ctx, id); ok {
		if result.Status == events.StatusFailed {
			writeError(w, h.Log, apperr.New(apperr.KindCapacity, result.Error))
			return
		}
		writeJSON(w, http.StatusOK, eventDetailToDTO(result.TicketData))
		return
	}

	detail, err := h.loadTicketDetail(ctx, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handlers) loadTicketDetail(ctx context.Context, ticketID string) (*domain.TicketDetail, error) {
	ticket, err := h.Store.Tickets().Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	zone, err := h.partitionForZone(ctx, ticket.ZoneID)
	if err != nil {
		return nil, err
	}
	concert, err := h.Store.Concerts().Get(ctx, zone.ConcertID)
	if err != nil {
		return nil, err
	}
	return &domain.TicketDetail{
		ID:                 ticket.ID,
		ZoneID:             zone.ID,
		ConcertID:          concert.ID,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
		ConcertName:        concert.Name,
		ConcertDescription: concert.Description,
		Price:              zone.Price,
		ZoneName:           zone.Name,
		ZoneDescription:    zone.Description,
	}, nil
}

// ListTicketsByZone lists the tickets belonging to a zone.
func (h *Handlers) ListTicketsByZone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	zoneID := mux.Vars(r)["zoneId"]
	tickets, err := h.Store.Tickets().ListByZone(ctx, zoneID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// ListTicketsByConcert lists the tickets belonging to any zone of a concert.
func (h *Handlers) ListTicketsByConcert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	concertID := mux.Vars(r)["concertId"]
	tickets, err := h.Store.Tickets().ListByConcert(ctx, concertID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func eventDetailToDTO(d *events.TicketDetailEvent) *domain.TicketDetail {
	if d == nil {
		return nil
	}
	return &domain.TicketDetail{
		ID:                 d.ID,
		ZoneID:             d.ZoneID,
		ConcertID:          d.ConcertID,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		ConcertName:        d.ConcertName,
		ConcertDescription: d.ConcertDescription,
		Price:              d.Price,
		ZoneName:           d.ZoneName,
		ZoneDescription:    d.ZoneDescription,
	}
}
