// Package topic implements the Topic Manager (§4.A): naming and idempotent
// provisioning of a concert's order and event topics, and the partition rule
// that pins a zone's traffic to a single partition.
package topic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const dialTimeout = 10 * time.Second

// OrderTopic returns the name of a concert's order topic.
func OrderTopic(concertID string) string {
	return "ticket-orders-" + concertID
}

// EventTopic returns the name of a concert's result/event topic.
func EventTopic(concertID string) string {
	return "ticket-events-" + concertID
}

// PartitionFor returns the Kafka partition a zone's traffic is pinned to.
// zoneNumber is 1-based; partitions are 0-based, per §4.A.
func PartitionFor(zoneNumber int) int {
	return zoneNumber - 1
}

// Manager provisions Kafka topics for concerts against a broker's
// controller. It is adapted from the standalone topic-init tool into a
// library the API's admin surface calls synchronously on concert creation.
type Manager struct {
	brokers     []string
	replication int
	log         *slog.Logger
}

// NewManager builds a Manager. replication must be positive.
func NewManager(brokers []string, replication int, log *slog.Logger) *Manager {
	return &Manager{brokers: brokers, replication: replication, log: log}
}

// Provision creates the order and event topics for a concert with
// partitions = numZones, per §4.A's contract. Topic-already-exists is
// treated as success; any other failure is returned to the caller, which
// decides whether to log it. Provision does not touch the concert row, and
// nothing creates the topics later on its own if this call fails.
func (m *Manager) Provision(ctx context.Context, concertID string, numZones int) error {
	if len(m.brokers) == 0 {
		return fmt.Errorf("topic: no brokers configured")
	}
	if numZones < 1 {
		return fmt.Errorf("topic: num_zones must be >= 1, got %d", numZones)
	}

	admin, closeAdmin, err := m.dialController(ctx)
	if err != nil {
		return err
	}
	defer closeAdmin()

	configs := []kafka.TopicConfig{
		{Topic: OrderTopic(concertID), NumPartitions: numZones, ReplicationFactor: m.replication},
		{Topic: EventTopic(concertID), NumPartitions: numZones, ReplicationFactor: m.replication},
	}
	if err := admin.CreateTopics(configs...); err != nil {
		if !isAlreadyExists(err) {
			return fmt.Errorf("topic: create topics for concert %s: %w", concertID, err)
		}
		m.log.Info("topics_exist", slog.String("concertId", concertID), slog.Any("err", err))
	} else {
		m.log.Info("topics_created", slog.String("concertId", concertID), slog.Int("partitions", numZones), slog.Int("replication", m.replication))
	}

	for _, cfg := range configs {
		count, err := readPartitions(admin, cfg.Topic)
		if err != nil {
			return err
		}
		if count != numZones {
			return fmt.Errorf("topic: %s has %d partitions; expected %d", cfg.Topic, count, numZones)
		}
	}
	return nil
}

func (m *Manager) dialController(ctx context.Context) (*kafka.Conn, func(), error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, err := kafka.DialContext(dialCtx, "tcp", m.brokers[0])
	if err != nil {
		return nil, nil, fmt.Errorf("topic: dial broker %s: %w", m.brokers[0], err)
	}
	controller, err := conn.Controller()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("topic: fetch controller metadata: %w", err)
	}
	_ = conn.Close()

	ctrlAddr := fmt.Sprintf("%s:%d", controller.Host, controller.Port)
	ctrlCtx, ctrlCancel := context.WithTimeout(ctx, dialTimeout)
	defer ctrlCancel()
	admin, err := kafka.DialContext(ctrlCtx, "tcp", ctrlAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("topic: dial controller %s: %w", ctrlAddr, err)
	}
	if err := admin.SetDeadline(time.Now().Add(dialTimeout)); err != nil {
		m.log.Warn("controller_deadline", slog.Any("err", err))
	}
	closeFn := func() {
		if err := admin.Close(); err != nil {
			m.log.Warn("controller_close", slog.Any("err", err))
		}
	}
	return admin, closeFn, nil
}

func readPartitions(conn *kafka.Conn, topic string) (int, error) {
	partitions, err := conn.ReadPartitions(topic)
	if err != nil {
		return 0, fmt.Errorf("topic: read partitions for %s: %w", topic, err)
	}
	seen := map[int]struct{}{}
	for _, p := range partitions {
		if p.Topic != topic {
			continue
		}
		seen[p.ID] = struct{}{}
	}
	return len(seen), nil
}

func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "already exists")
}
