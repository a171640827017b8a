// Package app assembles the pricing service from configuration for the binaries under cmd/.
package app

import (
	"context"
	"fmt"

	"pricebook/internal/core/tx"
	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/cache"
	"pricebook/internal/infrastructure/http/v1/handlers"
	"pricebook/internal/infrastructure/storage/memory"
	"pricebook/internal/infrastructure/storage/postgres"
	"pricebook/internal/infrastructure/storage/postgres/schedule_repo"
	"pricebook/pkg/config"
	"pricebook/pkg/logger"
	"pricebook/pkg/metrics"
)

// Storage is the persistence side of the service for the configured driver.
type Storage struct {
	Repo      pricing.Repository
	TxManager tx.Manager
	Events    pricing.EventPublisher
	History   pricing.HistoryStore

	// Pool is nil for the memory driver.
	Pool *postgres.Pool

	Checks []handlers.Checker

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// PoolConfig maps the DB section onto pool settings.
func PoolConfig(cfg config.DBConfig) postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(cfg.DSN)
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	return pc
}

// OpenStorage connects the configured store, wrapping it with the Redis cache when enabled.
// With the postgres driver every write also records an outbox event and a sys_audit row.
func OpenStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	st := &Storage{}

	switch cfg.Pricing.StorageDriver {
	case config.StorageDriverMemory:
		st.Repo = memory.NewScheduleStore()
		st.TxManager = tx.Direct{}
		st.Events = pricing.NopPublisher{}
		st.History = memory.NewHistoryStore()
		log.Warn("using in-memory storage; schedules are lost on restart")

	default:
		pool, err := postgres.NewPool(ctx, PoolConfig(cfg.DB))
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		st.Pool = pool

		txm := postgres.NewTxManager(pool)
		st.Repo = schedule_repo.New(txm)
		st.TxManager = txm
		st.Events = schedule_repo.NewOutboxEvents(postgres.NewOutboxPublisher(txm))

		audit, err := postgres.NewAuditLog(txm, postgres.DefaultAuditCompressThreshold)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.History = schedule_repo.NewAuditHistory(audit)
		st.Checks = append(st.Checks, handlers.Checker{Name: "database", Check: txm.Ping})
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, RedisConfig(cfg.Redis))
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Close() })

		cached, err := cache.NewScheduleCache(st.Repo, client, cache.Config{
			TTL:               cfg.Redis.TTL,
			CompressThreshold: cfg.Redis.CompressThreshold,
		}, log)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.Repo = cached
		st.Checks = append(st.Checks, handlers.Checker{Name: "redis", Check: cached.Ping})
	}

	return st, nil
}

// RedisConfig maps the Redis section onto client settings.
func RedisConfig(cfg config.RedisConfig) cache.RedisConfig {
	return cache.RedisConfig{
		URL:          cfg.URL,
		Address:      cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// NewService builds the pricing service over st.
func NewService(cfg *config.Config, st *Storage, m *metrics.Pricing, log *logger.Logger) (*pricing.Service, error) {
	scfg := pricing.ServiceConfig{
		Repo:      st.Repo,
		TxManager: st.TxManager,
		Events:    st.Events,
		History:   st.History,
		Metrics:   m,
		Logger:    log,
	}
	basePrices, err := cfg.Pricing.ParseBasePrices()
	if err != nil {
		return nil, err
	}
	if len(basePrices) > 0 {
		scfg.BasePrices = pricing.StaticBasePrices(basePrices)
	}
	return pricing.NewService(scfg), nil
}
