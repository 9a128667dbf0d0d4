// Package batch implements the Batch Persister (§4.F): a size/time
// triggered drain of accepted reservations into one bulk insert plus one
// seat-count decrement per zone, committed in a single transaction. The
// persister runs as an independent task from the consume loop so a slow
// commit never blocks message consumption, following the same
// Start/Stop-with-drain lifecycle the pack's async Kafka publisher uses.
package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ticketline/reservation-core/internal/breaker"
	"github.com/ticketline/reservation-core/internal/domain"
)

// Record is one accepted reservation awaiting persistence.
type Record struct {
	ZoneID string
	Ticket domain.Ticket
}

const defaultQueueSize = 4096

// Persister accumulates Records and flushes them to the store when either
// batchSize is reached or batchTimeout elapses since the last flush.
type Persister struct {
	store        domain.EntityStore
	batchSize    int
	batchTimeout time.Duration
	breaker      *breaker.Breaker
	log          *slog.Logger

	queue   chan Record
	pending []Record

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPersister builds a Persister. batchSize and batchTimeout must be
// positive; callers load both from config (BATCH_SIZE, BATCH_TIMEOUT). cb
// guards the Postgres commit the same way a producer's breaker guards its
// Kafka writes; it may be nil to run unguarded.
func NewPersister(store domain.EntityStore, batchSize int, batchTimeout time.Duration, cb *breaker.Breaker, log *slog.Logger) *Persister {
	return &Persister{
		store:        store,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		breaker:      cb,
		log:          log.With(slog.String("component", "batch_persister")),
		queue:        make(chan Record, defaultQueueSize),
	}
}

// Enqueue appends a Record to the pending queue, blocking only if the
// queue is full, until ctx is cancelled.
func (p *Persister) Enqueue(ctx context.Context, rec Record) error {
	select {
	case p.queue <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the background flush loop.
func (p *Persister) Start(ctx context.Context) {
	p.runCtx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run()
}

// Stop cancels the flush loop, drains whatever remains in the channel, and
// performs one final flush before returning, per §4.F's shutdown contract.
func (p *Persister) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.finalFlush(ctx)
}

func (p *Persister) run() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-p.runCtx.Done():
			return
		case rec := <-p.queue:
			p.pending = append(p.pending, rec)
			if len(p.pending) >= p.batchSize {
				p.flush(p.runCtx)
				ticker.Reset(p.batchTimeout)
			}
		case <-ticker.C:
			if len(p.pending) > 0 {
				p.flush(p.runCtx)
			}
		}
	}
}

// finalFlush drains whatever is left in the channel without blocking, then
// flushes it along with anything still pending.
func (p *Persister) finalFlush(ctx context.Context) error {
	for {
		select {
		case rec := <-p.queue:
			p.pending = append(p.pending, rec)
		default:
			if len(p.pending) == 0 {
				return nil
			}
			return p.flushErr(ctx)
		}
	}
}

func (p *Persister) flush(ctx context.Context) {
	if err := p.flushErr(ctx); err != nil {
		p.log.Error("flush_failed", slog.Any("err", err), slog.Int("records", len(p.pending)))
	}
}

// flushErr groups p.pending by zone and commits it via the store. On
// failure, the whole slice is left in p.pending for retry on the next
// tick rather than cleared, per §4.F's re-enqueue-on-failure contract.
func (p *Persister) flushErr(ctx context.Context) error {
	batches := groupByZone(p.pending)

	op := func(opCtx context.Context) error {
		return p.store.ReserveTickets(opCtx, batches)
	}
	var err error
	if p.breaker != nil {
		err = p.breaker.Execute(ctx, op)
	} else {
		err = op(ctx)
	}
	if err != nil {
		return err
	}
	p.log.Info("flush_ok", slog.Int("records", len(p.pending)), slog.Int("zones", len(batches)))
	p.pending = nil
	return nil
}

func groupByZone(records []Record) []domain.ReservedBatch {
	order := make([]string, 0)
	byZone := make(map[string][]domain.Ticket)
	for _, rec := range records {
		if _, ok := byZone[rec.ZoneID]; !ok {
			order = append(order, rec.ZoneID)
		}
		byZone[rec.ZoneID] = append(byZone[rec.ZoneID], rec.Ticket)
	}
	batches := make([]domain.ReservedBatch, 0, len(order))
	for _, zoneID := range order {
		batches = append(batches, domain.ReservedBatch{ZoneID: zoneID, Tickets: byZone[zoneID]})
	}
	return batches
}
