package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBoom = errors.New("boom")

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := New("t", Config{MaxFailures: 3, ResetTimeout: time.Hour}, testLogger())
	ctx := context.Background()
	failOp := func(context.Context) error { return errBoom }

	for i := 0; i < 2; i++ {
		if err := b.Execute(ctx, failOp); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: expected errBoom, got %v", i, err)
		}
		if b.State() != Closed {
			t.Fatalf("call %d: expected Closed before MaxFailures reached, got %v", i, b.State())
		}
	}

	if err := b.Execute(ctx, failOp); !errors.Is(err, errBoom) {
		t.Fatalf("3rd failure: expected errBoom, got %v", err)
	}
	if b.State() != Open {
		t.Fatalf("expected Open after MaxFailures consecutive failures, got %v", b.State())
	}
}

func TestBreakerFastFailsWhileOpen(t *testing.T) {
	b := New("t", Config{MaxFailures: 1, ResetTimeout: time.Hour}, testLogger())
	ctx := context.Background()

	if err := b.Execute(ctx, func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if b.State() != Open {
		t.Fatalf("expected Open, got %v", b.State())
	}

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen fast-fail, got %v", err)
	}
	if called {
		t.Fatalf("op must not run while Open within ResetTimeout")
	}
}

func TestBreakerClosesAfterSuccessfulProbe(t *testing.T) {
	b := New("t", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond}, testLogger())
	ctx := context.Background()

	if err := b.Execute(ctx, func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if b.State() != Open {
		t.Fatalf("expected Open, got %v", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	if err := b.Execute(ctx, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected probe to succeed, got %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("expected Closed after a successful probe, got %v", b.State())
	}
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	b := New("t", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond}, testLogger())
	ctx := context.Background()

	if err := b.Execute(ctx, func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if err := b.Execute(ctx, func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected probe failure to surface errBoom, got %v", err)
	}
	if b.State() != Open {
		t.Fatalf("expected Open again after a failed probe, got %v", b.State())
	}
}

func TestBreakerRecoversFromFailuresBelowThreshold(t *testing.T) {
	b := New("t", Config{MaxFailures: 2, ResetTimeout: time.Hour}, testLogger())
	ctx := context.Background()

	if err := b.Execute(ctx, func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("single failure below MaxFailures must stay Closed, got %v", b.State())
	}

	if err := b.Execute(ctx, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("expected Closed after a success, got %v", b.State())
	}

	// The failure counter must have reset on success: one more failure
	// alone should not open the breaker.
	if err := b.Execute(ctx, func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("expected Closed, recentFails should have reset after prior success, got %v", b.State())
	}
}
