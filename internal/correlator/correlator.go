// Package correlator implements the Pending-Result Correlator (§4.D): an
// in-memory, per-API-process map from ticket id to a signal a waiting HTTP
// handler blocks on until the Result Consumer deposits the matching
// TicketResultEvent, or the wait times out. The deposit-before-install race
// (the result arrives before the handler starts waiting) is handled the
// same way the ledger's zoneConsumer matches out-of-order aggregator/MAPE
// pairs: each side writes into a mutex-guarded map and whichever side
// arrives second performs the match.
package correlator

import (
	"context"
	"sync"

	"github.com/ticketline/reservation-core/internal/events"
)

// Correlator tracks one buffered-capacity-1 channel per in-flight ticket.
type Correlator struct {
	mu   sync.Mutex
	slot map[string]chan events.TicketResultEvent
}

// New builds an empty Correlator.
func New() *Correlator {
	return &Correlator{slot: make(map[string]chan events.TicketResultEvent)}
}

// Await installs a slot for ticketID (if one is not already present),
// blocks until a result is deposited or ctx is cancelled or reaches its
// deadline, then removes the slot so memory is bounded by in-flight requests only.
func (c *Correlator) Await(ctx context.Context, ticketID string) (events.TicketResultEvent, bool) {
	ch := c.installOrGet(ticketID)
	defer c.remove(ticketID)

	select {
	case result := <-ch:
		return result, true
	case <-ctx.Done():
		return events.TicketResultEvent{}, false
	}
}

// Deposit delivers a result to ticketID's slot. If no handler is awaiting
// yet, the slot is created anyway and the value buffers in it — the
// buffered-capacity-1 channel means Deposit never blocks regardless of
// arrival order.
func (c *Correlator) Deposit(ticketID string, result events.TicketResultEvent) {
	ch := c.installOrGet(ticketID)
	select {
	case ch <- result:
	default:
		// A result was already deposited and not yet consumed; the
		// Result Consumer should never redeliver the same ticket_id,
		// so this is a defensive no-op rather than an overwrite.
	}
}

func (c *Correlator) installOrGet(ticketID string) chan events.TicketResultEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.slot[ticketID]
	if !ok {
		ch = make(chan events.TicketResultEvent, 1)
		c.slot[ticketID] = ch
	}
	return ch
}

func (c *Correlator) remove(ticketID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slot, ticketID)
}
