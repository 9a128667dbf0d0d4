package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/cache"
	"github.com/ticketline/reservation-core/internal/correlator"
	"github.com/ticketline/reservation-core/internal/domain"
	"github.com/ticketline/reservation-core/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCache() *cache.Cache {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return cache.New(rdb, time.Minute, time.Hour, testLogger())
}

type fakeZoneRepo struct{ zones map[string]*domain.Zone }

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

type fakeConcertRepo struct{ concerts map[string]*domain.Concert }

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
}

func (s *fakeStore) Venues() domain.VenueRepository     { return nil }
func (s *fakeStore) Concerts() domain.ConcertRepository { return s.concerts }
func (s *fakeStore) Zones() domain.ZoneRepository       { return s.zones }
func (s *fakeStore) Tickets() domain.TicketRepository   { return nil }
func (s *fakeStore) ReserveTickets(ctx context.Context, batches []domain.ReservedBatch) error {
	return nil
}

// fakeProducer simulates the Order Producer plus a Reservation Worker
// instantaneously deciding success, so the handler test exercises the
// full await-then-respond path without standing up Kafka.
type fakeProducer struct {
	corr    *correlator.Correlator
	outcome events.TicketResultEvent
	silent  bool
}

func (p *fakeProducer) ProduceOrder(ctx context.Context, topic string, partition int, evt events.TicketOrderEvent) (bool, error) {
	if p.silent {
		return true, nil
	}
	result := p.outcome
	result.TicketID = evt.TicketID
	p.corr.Deposit(evt.TicketID, result)
	return true, nil
}

func TestCreateTicketHappyPath(t *testing.T) {
	store := &fakeStore{
		zones: &fakeZoneRepo{zones: map[string]*domain.Zone{
			"zoneA": {ID: "zoneA", ConcertID: "concertA", ZoneNumber: 1, AvailableSeats: 5, Name: "Pit", Price: 50},
		}},
		concerts: &fakeConcertRepo{concerts: map[string]*domain.Concert{"concertA": {ID: "concertA", Name: "Launch Night"}}},
	}
	corr := correlator.New()
	producer := &fakeProducer{corr: corr, outcome: events.Success("", "zoneA", "concertA", events.TicketDetailEvent{ZoneName: "Pit"})}

	h := &Handlers{Store: store, Cache: testCache(), Correlator: corr, Producer: producer, AwaitTimeout: time.Second, Log: testLogger()}
	router := NewRouter(h, testLogger())

	body, _ := json.Marshal(map[string]string{"zone_id": "zoneA", "concert_id": "concertA"})
	req := httptest.NewRequest(http.MethodPost, "/tickets/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var detail domain.TicketDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if detail.ZoneName != "Pit" {
		t.Fatalf("expected denormalized zone name, got %+v", detail)
	}
}

func TestCreateTicketTimesOut(t *testing.T) {
	store := &fakeStore{
		zones: &fakeZoneRepo{zones: map[string]*domain.Zone{
			"zoneA": {ID: "zoneA", ConcertID: "concertA", ZoneNumber: 1, AvailableSeats: 5},
		}},
		concerts: &fakeConcertRepo{concerts: map[string]*domain.Concert{"concertA": {ID: "concertA"}}},
	}
	corr := correlator.New()
	producer := &fakeProducer{corr: corr, silent: true}

	h := &Handlers{Store: store, Cache: testCache(), Correlator: corr, Producer: producer, AwaitTimeout: 20 * time.Millisecond, Log: testLogger()}
	router := NewRouter(h, testLogger())

	body, _ := json.Marshal(map[string]string{"zone_id": "zoneA", "concert_id": "concertA"})
	req := httptest.NewRequest(http.MethodPost, "/tickets/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestTimeout {
		t.Fatalf("expected 408, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateTicketZoneConcertMismatch(t *testing.T) {
	store := &fakeStore{
		zones: &fakeZoneRepo{zones: map[string]*domain.Zone{
			"zoneA": {ID: "zoneA", ConcertID: "concertA", ZoneNumber: 1, AvailableSeats: 5},
		}},
		concerts: &fakeConcertRepo{concerts: map[string]*domain.Concert{"concertA": {ID: "concertA"}}},
	}
	corr := correlator.New()
	producer := &fakeProducer{corr: corr}
	h := &Handlers{Store: store, Cache: testCache(), Correlator: corr, Producer: producer, AwaitTimeout: time.Second, Log: testLogger()}
	router := NewRouter(h, testLogger())

	body, _ := json.Marshal(map[string]string{"zone_id": "zoneA", "concert_id": "concertB"})
	req := httptest.NewRequest(http.MethodPost, "/tickets/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
