package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ticketline/reservation-core/internal/domain"
)

type fakeStore struct {
	mu      sync.Mutex
	calls   [][]domain.ReservedBatch
	failN   int
	reserve func(ctx context.Context, batches []domain.ReservedBatch) error
}

func (f *fakeStore) Venues() domain.VenueRepository     { return nil }
func (f *fakeStore) Concerts() domain.ConcertRepository { return nil }
func (f *fakeStore) Zones() domain.ZoneRepository       { return nil }
func (f *fakeStore) Tickets() domain.TicketRepository   { return nil }

func (f *fakeStore) ReserveTickets(ctx context.Context, batches []domain.ReservedBatch) error {
	f.mu.Lock()
	f.calls = append(f.calls, batches)
	fail := f.failN > 0
	if fail {
		f.failN--
	}
	f.mu.Unlock()
	if fail {
		return errors.New("commit failed")
	}
	if f.reserve != nil {
		return f.reserve(ctx, batches)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPersisterFlushesOnBatchSize(t *testing.T) {
	store := &fakeStore{}
	p := NewPersister(store, 2, time.Hour, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Start(ctx)

	for i := 0; i < 2; i++ {
		rec := Record{ZoneID: "zoneA", Ticket: domain.Ticket{ID: uuid.NewString(), ZoneID: "zoneA"}}
		if err := p.Enqueue(ctx, rec); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		store.mu.Lock()
		n := len(store.calls)
		store.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.calls) == 0 {
		t.Fatalf("expected at least one flush, got none")
	}
	if len(store.calls[0]) != 1 || store.calls[0][0].ZoneID != "zoneA" || len(store.calls[0][0].Tickets) != 2 {
		t.Fatalf("unexpected batch shape: %+v", store.calls[0])
	}
}

func TestPersisterRetainsPendingOnCommitFailure(t *testing.T) {
	store := &fakeStore{failN: 1}
	p := NewPersister(store, 1, time.Hour, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Start(ctx)

	rec := Record{ZoneID: "zoneB", Ticket: domain.Ticket{ID: uuid.NewString(), ZoneID: "zoneB"}}
	if err := p.Enqueue(ctx, rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.calls) < 2 {
		t.Fatalf("expected a retried flush after the induced failure, got %d calls", len(store.calls))
	}
}
