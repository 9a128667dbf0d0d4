// Command worker runs the Reservation Worker and Batch Persister: it
// consumes TicketOrderEvents from every concert's order topic, admits or
// rejects each against the in-memory per-zone seat counter, hands accepted
// reservations to the Batch Persister, and publishes the matching
// TicketResultEvent.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/ticketline/reservation-core/internal/batch"
	"github.com/ticketline/reservation-core/internal/breaker"
	"github.com/ticketline/reservation-core/internal/bus"
	"github.com/ticketline/reservation-core/internal/cache"
	"github.com/ticketline/reservation-core/internal/config"
	"github.com/ticketline/reservation-core/internal/logging"
	"github.com/ticketline/reservation-core/internal/store"
	"github.com/ticketline/reservation-core/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("config_load_failed", slog.Any("err", err))
		os.Exit(1)
	}
	log := logging.New(cfg.LogFormat, cfg.LogLevel)
	log.Info("worker_starting", slog.Int("batchSize", cfg.BatchSize), slog.Duration("batchTimeout", cfg.BatchTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db_connect_failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()
	entityStore := store.NewStore(db)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	defer rdb.Close()
	ttlCache := cache.New(rdb, cfg.EntityCacheTTL, cfg.ResultCacheTTL, log)

	breakerCfg := breaker.Config{MaxFailures: cfg.BreakerMaxFailures, ResetTimeout: cfg.BreakerResetTimeout}
	cb := breaker.New("kafka_producer", breakerCfg, log)
	producer := bus.NewProducer(cfg.KafkaBrokers(), cb, log)

	// A separate breaker for the Postgres commit path: Kafka and Postgres
	// are independent failure domains, so one tripping must not fast-fail
	// the other's calls.
	pgBreaker := breaker.New("postgres_commit", breakerCfg, log)
	persister := batch.NewPersister(entityStore, cfg.BatchSize, cfg.BatchTimeout, pgBreaker, log)
	persister.Start(ctx)

	w := worker.New(entityStore, ttlCache, persister, producer, log)

	consumer := newOrderConsumer(cfg.KafkaBrokers(), w, log)
	go consumer.Run(ctx)

	<-ctx.Done()
	log.Info("shutdown_signal_received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := persister.Stop(shutdownCtx); err != nil {
		log.Error("persister_stop_failed", slog.Any("err", err))
	}

	log.Info("worker_stopped")
}
