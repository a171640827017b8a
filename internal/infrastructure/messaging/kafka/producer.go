// Package kafka delivers outbox messages to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"time"

	skafka "github.com/segmentio/kafka-go"

	"pricebook/internal/infrastructure/storage/postgres"
)

// Writer is the subset of kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Config selects the brokers and topic.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// Producer implements postgres.OutboxHandler by writing each message to Kafka.
// Messages are keyed by aggregate id so events of one schedule stay ordered.
type Producer struct {
	writer Writer
}

var _ postgres.OutboxHandler = (*Producer)(nil)

// NewProducer creates a producer backed by a kafka.Writer that waits for all in-sync replicas.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	w := &skafka.Writer{
		Addr:         skafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &skafka.Hash{},
		RequiredAcks: skafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Producer{writer: w}, nil
}

// NewProducerWithWriter allows injecting a test writer.
func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{writer: w}
}

// Handle writes msg synchronously.
func (p *Producer) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if err := p.writer.WriteMessages(ctx, toMessage(msg)); err != nil {
		return fmt.Errorf("write %s to kafka: %w", msg.EventType, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func toMessage(msg *postgres.OutboxMessage) skafka.Message {
	return skafka.Message{
		Key:   []byte(msg.AggregateID.String()),
		Value: msg.Payload,
		Time:  msg.CreatedAt,
		Headers: []skafka.Header{
			{Key: "message_id", Value: []byte(msg.ID.String())},
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "aggregate_type", Value: []byte(msg.AggregateType)},
		},
	}
}
