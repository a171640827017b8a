package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"pricebook/internal/core/id"
	"pricebook/pkg/logger"
	"pricebook/pkg/metrics"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxMessage is one row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// DomainEvent is an event to be recorded in the outbox.
type DomainEvent struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
	OccurredAt    time.Time
}

const insertOutboxSQL = `
	INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// OutboxPublisher writes events to sys_outbox in the caller's transaction.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates an outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish inserts event into the outbox. It must run inside a transaction so the event
// commits or rolls back with the change it describes.
func (p *OutboxPublisher) Publish(ctx context.Context, event DomainEvent) error {
	t := p.txManager.GetTx(ctx)
	if t == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	_, err = t.Exec(ctx, insertOutboxSQL,
		id.New(), event.AggregateType, event.AggregateID, event.EventType,
		payload, OutboxStatusPending, occurred.UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers one outbox message, typically to a broker.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// RelayConfig tunes the outbox relay.
type RelayConfig struct {
	BatchSize  int
	MaxRetries int

	// Backoff is multiplied by the attempt number to schedule the next retry.
	Backoff time.Duration
}

// OutboxRelay moves pending outbox messages to an OutboxHandler.
type OutboxRelay struct {
	txManager *TxManager
	handler   OutboxHandler
	cfg       RelayConfig
	metrics   *metrics.Pricing
	log       *logger.Logger
}

// NewOutboxRelay creates a relay. Zero config values fall back to 100 messages per batch,
// 5 attempts and a one minute backoff step.
func NewOutboxRelay(txManager *TxManager, handler OutboxHandler, cfg RelayConfig, m *metrics.Pricing, log *logger.Logger) *OutboxRelay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Minute
	}
	if log == nil {
		log = logger.Default()
	}
	return &OutboxRelay{
		txManager: txManager,
		handler:   handler,
		cfg:       cfg,
		metrics:   m,
		log:       log.WithComponent("outbox_relay"),
	}
}

const selectPendingOutboxSQL = `
	SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
	       retry_count, last_error, next_retry_at, created_at, published_at
	FROM sys_outbox
	WHERE status = $1
	  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
	ORDER BY created_at
	LIMIT $2
	FOR UPDATE SKIP LOCKED`

// ProcessBatch locks up to BatchSize due messages, hands each to the handler and records
// the outcome, all in one transaction so concurrent relays never deliver the same row.
// It returns the number of messages delivered.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	delivered := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		if err := pgxscan.Select(ctx, q, &messages, selectPendingOutboxSQL, OutboxStatusPending, r.cfg.BatchSize); err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.handler.Handle(ctx, msg); err != nil {
				r.metrics.IncRelayed(metrics.OutcomeError)
				r.log.WithContext(ctx).Warnw("outbox delivery failed",
					"message_id", msg.ID, "event_type", msg.EventType, "attempt", msg.RetryCount+1, "error", err)
				if err := r.markFailed(ctx, q, msg, err); err != nil {
					return err
				}
				continue
			}
			if _, err := q.Exec(ctx,
				`UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3`,
				OutboxStatusPublished, time.Now().UTC(), msg.ID); err != nil {
				return fmt.Errorf("mark outbox message published: %w", err)
			}
			r.metrics.IncRelayed(metrics.OutcomeOK)
			delivered++
		}
		return nil
	})
	return delivered, err
}

// markFailed schedules a retry, or gives up once MaxRetries attempts were made.
func (r *OutboxRelay) markFailed(ctx context.Context, q Querier, msg *OutboxMessage, cause error) error {
	attempt := msg.RetryCount + 1
	status := OutboxStatusPending
	if attempt >= r.cfg.MaxRetries {
		status = OutboxStatusFailed
	}
	nextRetry := time.Now().UTC().Add(time.Duration(attempt) * r.cfg.Backoff)

	_, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4
		WHERE id = $5`,
		attempt, cause.Error(), nextRetry, status, msg.ID)
	if err != nil {
		return fmt.Errorf("update failed outbox message: %w", err)
	}
	return nil
}

// MoveToDLQ moves messages that exhausted their retries to sys_outbox_dlq.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1
			RETURNING id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at
		)
		INSERT INTO sys_outbox_dlq (id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at)
		SELECT id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at FROM moved`,
		OutboxStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return result.RowsAffected(), nil
}

// PurgePublished deletes published messages older than before.
func (r *OutboxRelay) PurgePublished(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2`,
		OutboxStatusPublished, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge published outbox messages: %w", err)
	}
	return result.RowsAffected(), nil
}
