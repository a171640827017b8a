package schedule_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"pricebook/internal/core/id"
	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/storage/postgres"
)

// AuditHistory stores schedule change history in sys_audit.
type AuditHistory struct {
	log *postgres.AuditLog
}

var _ pricing.HistoryStore = (*AuditHistory)(nil)

// NewAuditHistory creates a history store backed by log.
func NewAuditHistory(log *postgres.AuditLog) *AuditHistory {
	return &AuditHistory{log: log}
}

// Record implements pricing.HistoryStore.
func (h *AuditHistory) Record(ctx context.Context, entry *pricing.HistoryEntry) error {
	row, err := toAuditEntry(entry)
	if err != nil {
		return err
	}
	return h.log.Log(ctx, row)
}

// ListHistory implements pricing.HistoryStore.
func (h *AuditHistory) ListHistory(ctx context.Context, scheduleID id.ID, limit int) ([]pricing.HistoryEntry, error) {
	rows, err := h.log.History(ctx, pricing.AggregateType, scheduleID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]pricing.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		e, err := fromAuditEntry(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func toAuditEntry(e *pricing.HistoryEntry) (postgres.AuditEntry, error) {
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return postgres.AuditEntry{}, fmt.Errorf("marshal changes: %w", err)
	}
	return postgres.AuditEntry{
		ID:         e.ID,
		EntityType: pricing.AggregateType,
		EntityID:   e.ScheduleID,
		Action:     string(e.Action),
		UserID:     e.UserID,
		Changes:    changes,
		CreatedAt:  e.CreatedAt,
	}, nil
}

func fromAuditEntry(row postgres.AuditEntry) (pricing.HistoryEntry, error) {
	e := pricing.HistoryEntry{
		ID:         row.ID,
		ScheduleID: row.EntityID,
		Action:     pricing.EventType(row.Action),
		UserID:     row.UserID,
		CreatedAt:  row.CreatedAt,
	}
	if len(row.Changes) > 0 {
		if err := json.Unmarshal(row.Changes, &e.Changes); err != nil {
			return e, fmt.Errorf("unmarshal changes of %s: %w", row.ID, err)
		}
	}
	return e, nil
}
