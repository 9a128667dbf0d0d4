package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ticketline/reservation-core/internal/bus"
	"github.com/ticketline/reservation-core/internal/events"
	"github.com/ticketline/reservation-core/internal/worker"
)

const (
	consumerGroup            = "reservation-workers"
	orderTopicDiscoveryEvery = 10 * time.Second
)

// orderConsumer discovers every concert's order topic and runs one
// consumer-group reader per topic. Kafka's partition assignment within the
// group is what gives a zone's traffic a single-writer ordering guarantee;
// the consumer itself commits an offset only once HandleOrder returns
// without error: after an accepted record is handed to the Batch Persister,
// or after a rejected order's failed result has been published.
type orderConsumer struct {
	brokers []string
	w       *worker.Worker
	log     *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func newOrderConsumer(brokers []string, w *worker.Worker, log *slog.Logger) *orderConsumer {
	return &orderConsumer{
		brokers: brokers,
		w:       w,
		log:     log.With(slog.String("component", "order_consumer")),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Run refreshes the order-topic list until ctx is cancelled, then waits for
// every per-topic reader goroutine to exit before returning.
func (oc *orderConsumer) Run(ctx context.Context) {
	oc.discover(ctx)
	ticker := time.NewTicker(orderTopicDiscoveryEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			oc.wg.Wait()
			return
		case <-ticker.C:
			oc.discover(ctx)
		}
	}
}

func (oc *orderConsumer) discover(ctx context.Context) {
	topics, err := bus.ListOrderTopics(ctx, oc.brokers)
	if err != nil {
		oc.log.Warn("topic_discovery_failed", slog.Any("err", err))
		return
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	for _, topic := range topics {
		if _, ok := oc.cancels[topic]; ok {
			continue
		}
		topicCtx, cancel := context.WithCancel(ctx)
		oc.cancels[topic] = cancel
		oc.wg.Add(1)
		go oc.consumeTopic(topicCtx, topic)
		oc.log.Info("order_topic_discovered", slog.String("topic", topic))
	}
}

func (oc *orderConsumer) consumeTopic(ctx context.Context, topic string) {
	defer oc.wg.Done()
	reader := bus.NewGroupReader(oc.brokers, topic, consumerGroup)
	defer func() {
		if err := reader.Close(); err != nil {
			oc.log.Warn("reader_close_failed", slog.String("topic", topic), slog.Any("err", err))
		}
	}()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			oc.log.Warn("fetch_failed", slog.String("topic", topic), slog.Any("err", err))
			continue
		}
		oc.handle(ctx, reader, msg)
	}
}

// handle decodes and processes one order message, committing its offset
// only once HandleOrder returns without error. A decode failure or enqueue
// failure leaves the offset uncommitted; the reader's next fetch still
// moves on to the following message, so the skipped one is redelivered
// (to this partition's next owner) only if no later message on the
// partition is committed first.
func (oc *orderConsumer) handle(ctx context.Context, reader *kafka.Reader, msg kafka.Message) {
	var order events.TicketOrderEvent
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		oc.log.Error("decode_failed", slog.String("topic", msg.Topic), slog.Any("err", err))
		return
	}

	if _, err := oc.w.HandleOrder(ctx, order); err != nil {
		oc.log.Error("handle_order_failed", slog.String("ticketId", order.TicketID), slog.Any("err", err))
		return
	}

	if err := reader.CommitMessages(ctx, msg); err != nil {
		oc.log.Error("commit_failed", slog.String("ticketId", order.TicketID), slog.Any("err", err))
	}
}
