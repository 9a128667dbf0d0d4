// Package worker implements the Reservation Worker (§4.E): per-message
// validation of a TicketOrderEvent against zone capacity, persistence
// hand-off to the Batch Persister, and production of the matching
// TicketResultEvent. Partition ownership (one consumer-group member per
// zone's partition at a time) is what gives the worker its strict
// per-zone ordering; the worker itself holds no cross-zone lock.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/batch"
	"github.com/ticketline/reservation-core/internal/cache"
	"github.com/ticketline/reservation-core/internal/domain"
	"github.com/ticketline/reservation-core/internal/events"
	"github.com/ticketline/reservation-core/internal/topic"
)

// Producer is the subset of bus.Producer the worker depends on, so tests
// can substitute a fake without standing up a broker.
type Producer interface {
	ProduceResult(ctx context.Context, topic string, partition int, evt events.TicketResultEvent) error
}

// Worker processes TicketOrderEvents for whichever zones its consumer
// group assignment currently owns.
type Worker struct {
	store     domain.EntityStore
	cache     *cache.Cache
	persister *batch.Persister
	producer  Producer
	admission *admissionCounter
	log       *slog.Logger
}

// New builds a Worker.
func New(store domain.EntityStore, c *cache.Cache, persister *batch.Persister, producer Producer, log *slog.Logger) *Worker {
	return &Worker{
		store:     store,
		cache:     c,
		persister: persister,
		producer:  producer,
		admission: newAdmissionCounter(),
		log:       log.With(slog.String("component", "reservation_worker")),
	}
}

// HandleOrder runs the per-message algorithm from §4.E and returns the
// TicketResultEvent that was (or attempted to be) produced, so the caller
// can decide whether to commit the Kafka offset. A nil error means the
// message was fully handled, success or failed — offsets should commit.
// A non-nil error means step 5 (enqueue) failed and the message should be
// retried rather than committed.
func (w *Worker) HandleOrder(ctx context.Context, evt events.TicketOrderEvent) (events.TicketResultEvent, error) {
	zone, concert, err := w.fetchZoneAndConcert(ctx, evt.ZoneID, evt.ConcertID)
	if err != nil {
		result := events.Failed(evt.TicketID, evt.ZoneID, evt.ConcertID, err.Error())
		w.publishResult(ctx, concertEventTopic(evt.ConcertID), zonePartition(zone), result)
		return result, nil
	}

	w.admission.seedIfAbsent(zone.ID, zone.AvailableSeats)
	if !w.admission.tryAdmit(zone.ID) {
		result := events.Failed(evt.TicketID, evt.ZoneID, evt.ConcertID, apperr.CapacityMessage)
		w.publishResult(ctx, concertEventTopic(evt.ConcertID), zone.Partition(), result)
		return result, nil
	}

	ticket := domain.Ticket{ID: evt.TicketID, ZoneID: zone.ID}
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	detail := buildTicketDetail(ticket, *zone, *concert)

	if err := w.persister.Enqueue(ctx, batch.Record{ZoneID: zone.ID, Ticket: ticket}); err != nil {
		w.log.Error("enqueue_failed", slog.String("ticketId", ticket.ID), slog.Any("err", err))
		return events.TicketResultEvent{}, err
	}

	w.decrementCachedZone(ctx, zone)

	result := events.Success(ticket.ID, zone.ID, concert.ID, detailToEvent(detail))
	w.publishResult(ctx, concertEventTopic(evt.ConcertID), zone.Partition(), result)
	return result, nil
}

func (w *Worker) fetchZoneAndConcert(ctx context.Context, zoneID, concertID string) (*domain.Zone, *domain.Concert, error) {
	zone, err := w.getZone(ctx, zoneID)
	if err != nil {
		return nil, nil, err
	}
	if zone.ConcertID != concertID {
		return zone, nil, apperr.New(apperr.KindValidation, "zone does not belong to concert")
	}
	concert, err := w.getConcert(ctx, concertID)
	if err != nil {
		return zone, nil, err
	}
	return zone, concert, nil
}

// getZone reads through the TTL cache before falling back to the store,
// per §4.G's "Fetch Zone (via G, falling back to H)".
func (w *Worker) getZone(ctx context.Context, zoneID string) (*domain.Zone, error) {
	if z, ok := w.cache.GetZone(ctx, zoneID); ok {
		return z, nil
	}
	z, err := w.store.Zones().Get(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	w.cache.SetZone(ctx, z)
	return z, nil
}

func (w *Worker) getConcert(ctx context.Context, concertID string) (*domain.Concert, error) {
	if c, ok := w.cache.GetConcert(ctx, concertID); ok {
		return c, nil
	}
	c, err := w.store.Concerts().Get(ctx, concertID)
	if err != nil {
		return nil, err
	}
	w.cache.SetConcert(ctx, c)
	return c, nil
}

// decrementCachedZone refreshes the cached Zone entry after the in-memory
// admission decision, per §4.G's write-after-mutation consistency rule.
// The authoritative decrement happens later, transactionally, in the
// Batch Persister; this keeps hot reads roughly current in the meantime.
func (w *Worker) decrementCachedZone(ctx context.Context, zone *domain.Zone) {
	updated := *zone
	updated.AvailableSeats--
	updated.UpdatedAt = time.Now().UTC()
	w.cache.SetZone(ctx, &updated)
}

func (w *Worker) publishResult(ctx context.Context, topicName string, partition int, result events.TicketResultEvent) {
	if err := w.producer.ProduceResult(ctx, topicName, partition, result); err != nil {
		w.log.Error("publish_result_failed", slog.String("ticketId", result.TicketID), slog.Any("err", err))
	}
	w.cache.SetResult(ctx, result)
}

func concertEventTopic(concertID string) string {
	return topic.EventTopic(concertID)
}

func zonePartition(zone *domain.Zone) int {
	if zone == nil {
		return 0
	}
	return zone.Partition()
}

func buildTicketDetail(t domain.Ticket, zone domain.Zone, concert domain.Concert) domain.TicketDetail {
	now := time.Now().UTC()
	return domain.TicketDetail{
		ID:                 t.ID,
		ZoneID:             zone.ID,
		ConcertID:          concert.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
		ConcertName:        concert.Name,
		ConcertDescription: concert.Description,
		Price:              zone.Price,
		ZoneName:           zone.Name,
		ZoneDescription:    zone.Description,
	}
}

func detailToEvent(d domain.TicketDetail) events.TicketDetailEvent {
	return events.TicketDetailEvent{
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
