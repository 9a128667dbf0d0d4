// Package config loads the core's runtime configuration from environment
// variables using envconfig, following the prefixed-struct layout liverty's
// pkg/config uses, adapted to this core's own settings: Postgres, Redis,
// Kafka, batching, and the HTTP-facing timeouts.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the root configuration for both the api and worker binaries.
// Either binary loads the same struct and only uses the fields relevant to
// its own process.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	RedisHost string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort int    `envconfig:"REDIS_PORT" default:"6379"`

	KafkaBootstrapServers string `envconfig:"KAFKA_BOOTSTRAP_SERVERS" required:"true"`

	// Batch controls the Batch Persister's (§4.F) size/time trigger.
	BatchSize    int           `envconfig:"BATCH_SIZE" default:"50"`
	BatchTimeout time.Duration `envconfig:"BATCH_TIMEOUT" default:"2s"`

	// HTTPAddr is the api binary's listen address.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// AwaitTimeout bounds the Pending-Result Correlator's wait (§4.D).
	AwaitTimeout time.Duration `envconfig:"AWAIT_TIMEOUT" default:"15s"`

	// ShutdownTimeout bounds graceful drain on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// TopicReplicationFactor is passed to the Topic Manager (§4.A).
	TopicReplicationFactor int `envconfig:"TOPIC_REPLICATION_FACTOR" default:"1"`

	// ResultCacheTTL is the TTL Cache's (§4.G) retention for result replay.
	ResultCacheTTL time.Duration `envconfig:"RESULT_CACHE_TTL" default:"1h"`

	// EntityCacheTTL is the TTL Cache's retention for zone/concert reads.
	EntityCacheTTL time.Duration `envconfig:"ENTITY_CACHE_TTL" default:"5m"`

	// BreakerMaxFailures / BreakerResetTimeout size the circuit breakers
	// guarding Kafka writes and Postgres commits.
	BreakerMaxFailures  int           `envconfig:"BREAKER_MAX_FAILURES" default:"5"`
	BreakerResetTimeout time.Duration `envconfig:"BREAKER_RESET_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// KafkaBrokers splits KafkaBootstrapServers on commas.
func (c *Config) KafkaBrokers() []string {
	parts := strings.Split(c.KafkaBootstrapServers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RedisAddr returns the host:port pair go-redis expects.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
