package schedule_repo

import (
	"context"

	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/storage/postgres"
)

// OutboxEvents records schedule events in the transactional outbox.
type OutboxEvents struct {
	outbox *postgres.OutboxPublisher
}

var _ pricing.EventPublisher = (*OutboxEvents)(nil)

// NewOutboxEvents creates an event publisher backed by outbox.
func NewOutboxEvents(outbox *postgres.OutboxPublisher) *OutboxEvents {
	return &OutboxEvents{outbox: outbox}
}

// Publish implements pricing.EventPublisher.
func (e *OutboxEvents) Publish(ctx context.Context, ev pricing.Event) error {
	return e.outbox.Publish(ctx, toDomainEvent(ev))
}

func toDomainEvent(ev pricing.Event) postgres.DomainEvent {
	return postgres.DomainEvent{
		AggregateType: pricing.AggregateType,
		AggregateID:   ev.Schedule.ID,
		EventType:     string(ev.Type),
		Payload:       ev,
		OccurredAt:    ev.OccurredAt,
	}
}
