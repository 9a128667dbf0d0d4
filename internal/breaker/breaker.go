// Package breaker adapts the pack's three-state circuit breaker into a
// reusable guard for the two outbound calls the core cannot retry forever:
// Kafka writes (§4.B) and Postgres commits (§4.F). Construction, state
// machine, and logging follow the teacher's circuitbreaker package; the
// config source moves from a .properties file to envconfig-driven values
// (internal/config), since this core has no standalone config file.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned by Execute when the breaker fast-fails an operation.
var ErrOpen = errors.New("breaker: circuit open, fast-fail")

// Config holds the breaker's tunables.
type Config struct {
	MaxFailures  int           // consecutive failures before opening
	ResetTimeout time.Duration // time an Open breaker waits before probing again
}

// Breaker wraps an operation with a Closed/Open/HalfOpen state machine. The
// post-timeout HalfOpen trial is the operation itself.
type Breaker struct {
	name string
	cfg  Config
	log  *slog.Logger

	mu          sync.Mutex
	state       State
	recentFails int
	openedAt    time.Time
}

// New builds a Breaker. cfg is defaulted if zero-valued.
func New(name string, cfg Config, log *slog.Logger) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	b := &Breaker{name: name, cfg: cfg, log: log, state: Closed}
	b.log.Info("breaker_created", slog.String("name", name), slog.Int("maxFailures", cfg.MaxFailures), slog.Duration("resetTimeout", cfg.ResetTimeout))
	return b
}

// Execute runs op, guarded by the breaker's current state. While Open and
// within ResetTimeout of opening, it fast-fails with ErrOpen without
// calling op. Once ResetTimeout has elapsed it transitions to HalfOpen and
// lets exactly one call through as a probe; other calls fast-fail with
// ErrOpen until that probe finishes. The failure that opens the breaker
// is returned to its caller as-is.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.state
	openedAt := b.openedAt
	if state == Open && time.Since(openedAt) >= b.cfg.ResetTimeout {
		b.state = HalfOpen
		b.mu.Unlock()
		return b.probe(ctx, op)
	}
	b.mu.Unlock()

	if state == Open || state == HalfOpen {
		b.log.Warn("breaker_fast_fail", slog.String("name", b.name), slog.Duration("sinceOpen", time.Since(openedAt)))
		return ErrOpen
	}

	if err := op(ctx); err != nil {
		b.onFailure(err)
		return err
	}
	b.onSuccess()
	return nil
}

// State reports the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) probe(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	b.state = HalfOpen
	b.mu.Unlock()
	b.log.Info("breaker_probe_start", slog.String("name", b.name))

	if err := op(ctx); err != nil {
		b.mu.Lock()
		b.state = Open
		b.openedAt = time.Now()
		b.recentFails++
		b.mu.Unlock()
		b.log.Warn("breaker_probe_failed", slog.String("name", b.name), slog.Any("err", err))
		return err
	}

	b.mu.Lock()
	b.state = Closed
	b.recentFails = 0
	b.mu.Unlock()
	b.log.Info("breaker_closed_after_probe", slog.String("name", b.name))
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Closed {
		b.log.Info("breaker_state_to_closed", slog.String("name", b.name), slog.String("from", b.state.String()))
	}
	b.state = Closed
	b.recentFails = 0
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recentFails++
	b.log.Warn("operation_failure", slog.String("name", b.name), slog.Int("failures", b.recentFails), slog.Any("err", err))
	if b.recentFails >= b.cfg.MaxFailures {
		b.state = Open
		b.openedAt = time.Now()
		b.log.Error("breaker_opened", slog.String("name", b.name), slog.Int("maxFailures", b.cfg.MaxFailures))
	}
}
