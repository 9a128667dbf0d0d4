package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/batch"
	"github.com/ticketline/reservation-core/internal/cache"
	"github.com/ticketline/reservation-core/internal/domain"
	"github.com/ticketline/reservation-core/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testCache builds a Cache over a redis.Client with no live connection.
// Every call therefore misses, which is fine: these tests exercise the
// worker's store fallback path, not the cache hit path.
func testCache() *cache.Cache {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return cache.New(rdb, time.Minute, time.Hour, testLogger())
}

type fakeZoneRepo struct {
	zones map[string]*domain.Zone
}

func (r *fakeZoneRepo) Create(ctx context.Context, p *domain.NewZone) (*domain.Zone, error) {
	return nil, nil
}
func (r *fakeZoneRepo) Get(ctx context.Context, id string) (*domain.Zone, error) {
	z, ok := r.zones[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "zone not found")
	}
	cp := *z
	return &cp, nil
}
func (r *fakeZoneRepo) DecrementSeats(ctx context.Context, id string, n int) error { return nil }

type fakeConcertRepo struct {
	concerts map[string]*domain.Concert
}

func (r *fakeConcertRepo) Create(ctx context.Context, p *domain.NewConcert) (*domain.Concert, error) {
	return nil, nil
}
func (r *fakeConcertRepo) Get(ctx context.Context, id string) (*domain.Concert, error) {
	c, ok := r.concerts[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "concert not found")
	}
	cp := *c
	return &cp, nil
}

type fakeStore struct {
	zones    *fakeZoneRepo
	concerts *fakeConcertRepo

	mu       sync.Mutex
	reserved []domain.ReservedBatch
}

func (s *fakeStore) Venues() domain.VenueRepository     { return nil }
func (s *fakeStore) Concerts() domain.ConcertRepository { return s.concerts }
func (s *fakeStore) Zones() domain.ZoneRepository       { return s.zones }
func (s *fakeStore) Tickets() domain.TicketRepository   { return nil }

func (s *fakeStore) ReserveTickets(ctx context.Context, batches []domain.ReservedBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved = append(s.reserved, batches...)
	return nil
}

type fakeProducer struct {
	mu      sync.Mutex
	results []events.TicketResultEvent
}

func (p *fakeProducer) ProduceResult(ctx context.Context, topic string, partition int, evt events.TicketResultEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, evt)
	return nil
}

func newTestWorker(t *testing.T, store *fakeStore, producer *fakeProducer) (*Worker, *batch.Persister, context.CancelFunc) {
	t.Helper()
	persister := batch.NewPersister(store, 100, time.Hour, nil, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	persister.Start(ctx)
	w := New(store, testCache(), persister, producer, testLogger())
	return w, persister, cancel
}

func TestHandleOrderHappyPath(t *testing.T) {
	store := &fakeStore{
		zones: &fakeZoneRepo{zones: map[string]*domain.Zone{
			"zoneA": {ID: "zoneA", ConcertID: "concertA", ZoneNumber: 1, ZoneCapacity: 2, AvailableSeats: 2, Name: "Pit", Price: 50},
		}},
		concerts: &fakeConcertRepo{concerts: map[string]*domain.Concert{
			"concertA": {ID: "concertA", Name: "Launch Night"},
		}},
	}
	producer := &fakeProducer{}
	w, persister, cancel := newTestWorker(t, store, producer)
	defer cancel()

	ctx := context.Background()
	evt := events.NewTicketOrderEvent("ticket-1", "zoneA", "concertA")
	result, err := w.HandleOrder(ctx, evt)
	if err != nil {
		t.Fatalf("HandleOrder: %v", err)
	}
	if result.Status != events.StatusSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.TicketData == nil || result.TicketData.ZoneName != "Pit" {
		t.Fatalf("expected denormalized ticket data, got %+v", result.TicketData)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := persister.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(store.reserved) != 1 || store.reserved[0].ZoneID != "zoneA" {
		t.Fatalf("expected one reserved batch for zoneA, got %+v", store.reserved)
	}
}

func TestHandleOrderSoldOut(t *testing.T) {
	store := &fakeStore{
		zones: &fakeZoneRepo{zones: map[string]*domain.Zone{
			"zoneA": {ID: "zoneA", ConcertID: "concertA", ZoneNumber: 1, ZoneCapacity: 1, AvailableSeats: 1},
		}},
		concerts: &fakeConcertRepo{concerts: map[string]*domain.Concert{
			"concertA": {ID: "concertA", Name: "Launch Night"},
		}},
	}
	producer := &fakeProducer{}
	w, persister, cancel := newTestWorker(t, store, producer)
	defer cancel()
	defer persister.Stop(context.Background())

	ctx := context.Background()
	first := events.NewTicketOrderEvent("ticket-1", "zoneA", "concertA")
	second := events.NewTicketOrderEvent("ticket-2", "zoneA", "concertA")

	r1, err := w.HandleOrder(ctx, first)
	if err != nil || r1.Status != events.StatusSuccess {
		t.Fatalf("expected first order to succeed, got %+v err=%v", r1, err)
	}
	r2, err := w.HandleOrder(ctx, second)
	if err != nil {
		t.Fatalf("HandleOrder: %v", err)
	}
	if r2.Status != events.StatusFailed || r2.Error != apperr.CapacityMessage {
		t.Fatalf("expected capacity failure, got %+v", r2)
	}
}

func TestHandleOrderZoneConcertMismatch(t *testing.T) {
	store := &fakeStore{
		zones: &fakeZoneRepo{zones: map[string]*domain.Zone{
			"zoneA": {ID: "zoneA", ConcertID: "concertA", ZoneNumber: 1, ZoneCapacity: 5, AvailableSeats: 5},
		}},
		concerts: &fakeConcertRepo{concerts: map[string]*domain.Concert{
			"concertA": {ID: "concertA", Name: "Launch Night"},
		}},
	}
	producer := &fakeProducer{}
	w, persister, cancel := newTestWorker(t, store, producer)
	defer cancel()
	defer persister.Stop(context.Background())

	ctx := context.Background()
	evt := events.NewTicketOrderEvent("ticket-1", "zoneA", "concertB")
	result, err := w.HandleOrder(ctx, evt)
	if err != nil {
		t.Fatalf("HandleOrder: %v", err)
	}
	if result.Status != events.StatusFailed {
		t.Fatalf("expected failed result for mismatched concert, got %+v", result)
	}
}
