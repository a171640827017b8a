package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebook/internal/core/id"
	"pricebook/pkg/logger"
)

func TestOutboxPublisher_RequiresTransaction(t *testing.T) {
	p := NewOutboxPublisher(&TxManager{})
	err := p.Publish(context.Background(), DomainEvent{AggregateType: "PriceSchedule", AggregateID: id.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction")
}

func TestNewOutboxRelay_Defaults(t *testing.T) {
	r := NewOutboxRelay(&TxManager{}, nil, RelayConfig{}, nil, logger.Nop())
	assert.Equal(t, RelayConfig{BatchSize: 100, MaxRetries: 5, Backoff: time.Minute}, r.cfg)

	r = NewOutboxRelay(&TxManager{}, nil, RelayConfig{BatchSize: 10, MaxRetries: 2, Backoff: time.Second}, nil, nil)
	assert.Equal(t, 10, r.cfg.BatchSize)
	assert.Equal(t, 2, r.cfg.MaxRetries)
	assert.NotNil(t, r.log)
}

func TestSelectPendingOutbox_LocksRows(t *testing.T) {
	sql := strings.Join(strings.Fields(selectPendingOutboxSQL), " ")
	assert.True(t, strings.HasSuffix(sql, "ORDER BY created_at LIMIT $2 FOR UPDATE SKIP LOCKED"), sql)
	assert.Contains(t, sql, "next_retry_at IS NULL OR next_retry_at <= NOW()")
}
