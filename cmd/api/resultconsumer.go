package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ticketline/reservation-core/internal/bus"
	"github.com/ticketline/reservation-core/internal/cache"
	"github.com/ticketline/reservation-core/internal/correlator"
	"github.com/ticketline/reservation-core/internal/events"
)

// resultConsumer discovers every concert's event topic via a periodic
// prefix scan (kafka-go has no wildcard subscribe) and reads each on its
// own goroutine, depositing results into the correlator and the result
// replay cache. Every api process runs one of these and reads every
// partition independently, since a result must reach whichever process
// is holding the correlator slot for its ticket.
type resultConsumer struct {
	brokers []string
	corr    *correlator.Correlator
	cache   *cache.Cache
	log     *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func newResultConsumer(brokers []string, corr *correlator.Correlator, c *cache.Cache, log *slog.Logger) *resultConsumer {
	return &resultConsumer{
		brokers: brokers,
		corr:    corr,
		cache:   c,
		log:     log.With(slog.String("component", "result_consumer")),
		cancels: make(map[string]context.CancelFunc),
	}
}

const topicDiscoveryInterval = 10 * time.Second

// Run refreshes the topic list until ctx is cancelled, then waits for
// every per-topic reader goroutine to exit before returning.
func (rc *resultConsumer) Run(ctx context.Context) {
	rc.discover(ctx)
	ticker := time.NewTicker(topicDiscoveryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			rc.wg.Wait()
			return
		case <-ticker.C:
			rc.discover(ctx)
		}
	}
}

func (rc *resultConsumer) discover(ctx context.Context) {
	topics, err := bus.ListEventTopics(ctx, rc.brokers)
	if err != nil {
		rc.log.Warn("topic_discovery_failed", slog.Any("err", err))
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for _, topic := range topics {
		if _, ok := rc.cancels[topic]; ok {
			continue
		}
		topicCtx, cancel := context.WithCancel(ctx)
		rc.cancels[topic] = cancel
		rc.wg.Add(1)
		go rc.consumeTopic(topicCtx, topic)
		rc.log.Info("topic_discovered", slog.String("topic", topic))
	}
}

func (rc *resultConsumer) consumeTopic(ctx context.Context, topic string) {
	defer rc.wg.Done()
	reader := bus.NewEventReader(rc.brokers, topic)
	defer func() {
		if err := reader.Close(); err != nil {
			rc.log.Warn("reader_close_failed", slog.String("topic", topic), slog.Any("err", err))
		}
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			rc.log.Warn("read_failed", slog.String("topic", topic), slog.Any("err", err))
			continue
		}
		var result events.TicketResultEvent
		if err := json.Unmarshal(msg.Value, &result); err != nil {
			rc.log.Error("decode_failed", slog.String("topic", topic), slog.Any("err", err))
			continue
		}
		rc.corr.Deposit(result.TicketID, result)
		rc.cache.SetResult(ctx, result)
	}
}
