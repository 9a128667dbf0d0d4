package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewGroupReader builds a manual-commit reader for a concert's order topic,
// joined under group. CommitInterval is disabled (0) so CommitMessages must
// be called explicitly once a fetched record has been handed off — per
// §4.E's discipline of committing only after the record reaches the batch
// channel, never merely on fetch.
func NewGroupReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		CommitInterval: 0,
	})
}

// NewEventReader builds a reader for a concert's event topic for the
// Result Consumer. Each API process reads every partition of every event
// topic independently (GroupID empty), since a result must reach whichever
// process is holding the correlator slot for that ticket, not be balanced
// across a group.
func NewEventReader(brokers []string, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.LastOffset,
	})
}

// EventTopicPrefix is the fixed prefix of every concert's event topic name,
// used by the Result Consumer to discover topics since segmentio/kafka-go
// has no wildcard-subscribe primitive; §4.C's "periodic topic-list refresh"
// is implemented as a prefix scan against broker metadata.
const EventTopicPrefix = "ticket-events-"

// OrderTopicPrefix is the fixed prefix of every concert's order topic name,
// used by the Reservation Worker's consumer supervisor the same way
// EventTopicPrefix is used by the Result Consumer.
const OrderTopicPrefix = "ticket-orders-"

// ListEventTopics dials a broker and returns every topic whose name starts
// with EventTopicPrefix.
func ListEventTopics(ctx context.Context, brokers []string) ([]string, error) {
	return listTopicsByPrefix(ctx, brokers, EventTopicPrefix)
}

// ListOrderTopics dials a broker and returns every topic whose name starts
// with OrderTopicPrefix.
func ListOrderTopics(ctx context.Context, brokers []string) ([]string, error) {
	return listTopicsByPrefix(ctx, brokers, OrderTopicPrefix)
}

func listTopicsByPrefix(ctx context.Context, brokers []string, prefix string) ([]string, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("bus: no brokers configured")
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := kafka.DialContext(dialCtx, "tcp", brokers[0])
	if err != nil {
		return nil, fmt.Errorf("bus: dial broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return nil, fmt.Errorf("bus: read partitions: %w", err)
	}
	seen := map[string]struct{}{}
	var topics []string
	for _, p := range partitions {
		if !strings.HasPrefix(p.Topic, prefix) {
			continue
		}
		if _, ok := seen[p.Topic]; ok {
			continue
		}
		seen[p.Topic] = struct{}{}
		topics = append(topics, p.Topic)
	}
	return topics, nil
}
