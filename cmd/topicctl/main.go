// Command topicctl provisions a single concert's order and event topics
// without standing up the full api/worker wiring, for operators backfilling
// topics after a manual concert insert or recovering from a provisioning
// failure logged by the api binary's admin surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ticketline/reservation-core/internal/logging"
	"github.com/ticketline/reservation-core/internal/topic"
)

func main() {
	brokersFlag := flag.String("brokers", getenv("KAFKA_BOOTSTRAP_SERVERS", ""), "Comma-separated list of Kafka brokers")
	concertFlag := flag.String("concert-id", "", "Concert id to provision topics for")
	numZonesFlag := flag.Int("num-zones", 0, "Number of zones (and partitions) the concert has")
	replicationFlag := flag.Int("replication", geti("TOPIC_REPLICATION_FACTOR", 1), "Replication factor for both topics")
	logFormatFlag := flag.String("log-format", getenv("LOG_FORMAT", "json"), "json or text")
	logLevelFlag := flag.String("log-level", getenv("LOG_LEVEL", "info"), "debug/info/warn/error")
	flag.Parse()

	log := logging.New(*logFormatFlag, *logLevelFlag)

	brokers := splitAndTrim(*brokersFlag)
	if len(brokers) == 0 {
		fmt.Println("KAFKA_BOOTSTRAP_SERVERS or --brokers must be provided")
		os.Exit(2)
	}
	if *concertFlag == "" {
		fmt.Println("--concert-id must be provided")
		os.Exit(2)
	}
	if *numZonesFlag < 1 {
		fmt.Println("--num-zones must be >= 1")
		os.Exit(2)
	}
	if *replicationFlag < 1 {
		fmt.Println("--replication must be >= 1")
		os.Exit(2)
	}

	mgr := topic.NewManager(brokers, *replicationFlag, log)
	if err := mgr.Provision(context.Background(), *concertFlag, *numZonesFlag); err != nil {
		log.Error("provision_failed", slog.String("concertId", *concertFlag), slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("provision_ok", slog.String("concertId", *concertFlag), slog.Int("numZones", *numZonesFlag))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func geti(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := fallback
	_, err := fmt.Sscanf(v, "%d", &n)
	if err != nil {
		return fallback
	}
	return n
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
