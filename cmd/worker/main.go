// Package main is the entry point for the pricebook outbox worker.
// It relays committed schedule events from sys_outbox to Kafka.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pricebook/internal/app"
	"pricebook/internal/infrastructure/messaging/kafka"
	"pricebook/internal/infrastructure/storage/postgres"
	"pricebook/pkg/config"
	"pricebook/pkg/logger"
	"pricebook/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDev(),
		Service:     "pricebook-worker",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Pricing.StorageDriver != config.StorageDriverPostgres {
		log.Fatalw("the outbox worker needs the postgres storage driver", "driver", cfg.Pricing.StorageDriver)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting pricebook outbox worker")

	pool, err := postgres.NewPool(ctx, app.PoolConfig(cfg.DB))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	handler, closeHandler, err := newHandler(cfg.Kafka, log)
	if err != nil {
		log.Fatalw("failed to create outbox handler", "error", err)
	}
	defer closeHandler()

	reg := prometheus.NewRegistry()
	relay := postgres.NewOutboxRelay(postgres.NewTxManager(pool), handler, postgres.RelayConfig{
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetries,
		Backoff:    cfg.Outbox.Backoff,
	}, metrics.NewPricing(reg), log)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("metrics server failed", "error", err)
		}
	}()

	w := &worker{relay: relay, cfg: cfg.Outbox, log: log.WithComponent("worker")}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsServer.Shutdown(shutdownCtx)

	log.Info("worker stopped")
}

// newHandler returns the Kafka producer, or a handler that only logs when Kafka is disabled.
func newHandler(cfg config.KafkaConfig, log *logger.Logger) (postgres.OutboxHandler, func(), error) {
	if !cfg.Enabled {
		log.Warn("kafka disabled; outbox messages are logged and marked published")
		return logHandler{log: log.WithComponent("outbox_log")}, func() {}, nil
	}
	p, err := kafka.NewProducer(kafka.Config{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			log.Warnw("failed to close kafka producer", "error", err)
		}
	}, nil
}

type logHandler struct {
	log *logger.Logger
}

func (h logHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	h.log.WithContext(ctx).Infow("outbox message",
		"message_id", msg.ID,
		"event_type", msg.EventType,
		"aggregate_id", msg.AggregateID,
	)
	return nil
}

type worker struct {
	relay *postgres.OutboxRelay
	cfg   config.OutboxConfig
	log   *logger.Logger
}

// Run polls the outbox until ctx is cancelled. Full batches are followed immediately by
// another poll.
func (w *worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	maintenance := time.NewTicker(time.Hour)
	defer maintenance.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-maintenance.C:
			w.maintain(ctx)
		}
	}
}

func (w *worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Errorw("outbox batch failed", "error", err)
			}
			return
		}
		if n > 0 {
			w.log.Debugw("relayed outbox batch", "count", n)
		}
		if n < w.cfg.BatchSize {
			return
		}
	}
}

func (w *worker) maintain(ctx context.Context) {
	moved, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("failed to move exhausted messages to DLQ", "error", err)
	} else if moved > 0 {
		w.log.Warnw("moved exhausted outbox messages to DLQ", "count", moved)
	}

	purged, err := w.relay.PurgePublished(ctx, time.Now().Add(-w.cfg.Retention))
	if err != nil {
		w.log.Errorw("failed to purge published outbox messages", "error", err)
	} else if purged > 0 {
		w.log.Infow("purged published outbox messages", "count", purged)
	}
}
