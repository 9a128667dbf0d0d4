// Command api serves the synchronous-over-asynchronous HTTP facade: it
// accepts ticket order requests, publishes them to Kafka, and blocks the
// caller on the Pending-Result Correlator until the Reservation Worker's
// result arrives or the request times out.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/ticketline/reservation-core/internal/breaker"
	"github.com/ticketline/reservation-core/internal/bus"
	"github.com/ticketline/reservation-core/internal/cache"
	"github.com/ticketline/reservation-core/internal/config"
	"github.com/ticketline/reservation-core/internal/correlator"
	"github.com/ticketline/reservation-core/internal/httpapi"
	"github.com/ticketline/reservation-core/internal/logging"
	"github.com/ticketline/reservation-core/internal/store"
	"github.com/ticketline/reservation-core/internal/topic"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("config_load_failed", slog.Any("err", err))
		os.Exit(1)
	}
	log := logging.New(cfg.LogFormat, cfg.LogLevel)
	log.Info("api_starting", slog.String("addr", cfg.HTTPAddr))

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

	cb := breaker.New("kafka_producer", breaker.Config{MaxFailures: cfg.BreakerMaxFailures, ResetTimeout: cfg.BreakerResetTimeout}, log)
	producer := bus.NewProducer(cfg.KafkaBrokers(), cb, log)
	topics := topic.NewManager(cfg.KafkaBrokers(), cfg.TopicReplicationFactor, log)
	corr := correlator.New()

	consumer := newResultConsumer(cfg.KafkaBrokers(), corr, ttlCache, log)
	go consumer.Run(ctx)

	handlers := &httpapi.Handlers{
		Store:        entityStore,
		Cache:        ttlCache,
		Correlator:   corr,
		Producer:     producer,
		Topics:       topics,
		AwaitTimeout: cfg.AwaitTimeout,
		Log:          log,
	}
	router := httpapi.NewRouter(handlers, log)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_failed", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown_signal_received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http_shutdown_failed", slog.Any("err", err))
	}

	log.Info("api_stopped")
}
