package pricing

import (
	"context"
	"time"
)

// EventType names a schedule change published to downstream systems.
type EventType string

const (
	EventCreated   EventType = "price_schedule.created"
	EventUpdated   EventType = "price_schedule.updated"
	EventCancelled EventType = "price_schedule.cancelled"
	EventDeleted   EventType = "price_schedule.deleted"
)

// AggregateType is the outbox aggregate name of price schedules.
const AggregateType = "PriceSchedule"

// Event describes one committed schedule change.
type Event struct {
	Type       EventType      `json:"type"`
	Schedule   *PriceSchedule `json:"schedule"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// EventPublisher records events inside the writing transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
