package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebook/internal/core/tx"
	"pricebook/internal/core/types"
	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/storage/memory"
	"pricebook/pkg/config"
	"pricebook/pkg/logger"
)

func TestPoolConfig(t *testing.T) {
	pc := PoolConfig(config.DBConfig{DSN: "postgres://localhost/pricebook", MaxConns: 7})
	assert.Equal(t, "postgres://localhost/pricebook", pc.DSN)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns, "default kept")
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
}

func TestOpenStorage_Memory(t *testing.T) {
	cfg := &config.Config{Pricing: config.PricingConfig{
		StorageDriver: config.StorageDriverMemory,
		BasePrices:    map[string]string{"SKU-1": "15"},
	}}

	st, err := OpenStorage(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &memory.ScheduleStore{}, st.Repo)
	assert.Equal(t, tx.Direct{}, st.TxManager)
	assert.Nil(t, st.Pool)
	assert.IsType(t, &memory.HistoryStore{}, st.History)
	assert.Empty(t, st.Checks)

	svc, err := NewService(cfg, st, nil, logger.Nop())
	require.NoError(t, err)

	ep, err := svc.ResolveEffectivePrice(context.Background(), pricing.Query{ItemID: "SKU-1"})
	require.NoError(t, err)
	assert.Equal(t, pricing.SourceBase, ep.Source)
	assert.True(t, ep.BasePrice.Equal(types.MustMoney("15")))
}

func TestOpenStorage_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{
		Pricing: config.PricingConfig{StorageDriver: config.StorageDriverMemory},
		Redis:   config.RedisConfig{Enabled: true, Address: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond},
	}
	_, err := OpenStorage(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
