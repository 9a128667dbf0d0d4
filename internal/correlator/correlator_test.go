package correlator

import (
	"context"
	"testing"
	"time"

	"github.com/ticketline/reservation-core/internal/events"
)

func TestAwaitReceivesDepositedResult(t *testing.T) {
	c := New()
	want := events.Success("t1", "z1", "c1", events.TicketDetailEvent{ID: "t1"})

	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Deposit("t1", want)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, ok := c.Await(ctx, "t1")
	if !ok {
		t.Fatalf("expected result, got timeout")
	}
	if got.TicketID != want.TicketID || got.Status != want.Status {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDepositBeforeAwaitIsNotLost(t *testing.T) {
	c := New()
	want := events.Success("t2", "z1", "c1", events.TicketDetailEvent{ID: "t2"})
	c.Deposit("t2", want)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, ok := c.Await(ctx, "t2")
	if !ok {
		t.Fatalf("expected result, got timeout")
	}
	if got.TicketID != want.TicketID {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestAwaitTimesOut(t *testing.T) {
	c := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok := c.Await(ctx, "never-deposited")
	if ok {
		t.Fatalf("expected timeout, got a result")
	}
	c.mu.Lock()
	_, present := c.slot["never-deposited"]
	c.mu.Unlock()
	if present {
		t.Fatalf("expected slot to be cleaned up after timeout")
	}
}
