package memory

import (
	"context"
	"sync"

	"pricebook/internal/core/id"
	"pricebook/internal/domain/pricing"
)

var _ pricing.HistoryStore = (*HistoryStore)(nil)

// HistoryStore keeps change history per schedule in insertion order.
type HistoryStore struct {
	mu      sync.RWMutex
	entries map[id.ID][]pricing.HistoryEntry
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{entries: make(map[id.ID][]pricing.HistoryEntry)}
}

// Record appends entry to its schedule's history.
func (h *HistoryStore) Record(_ context.Context, entry *pricing.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[entry.ScheduleID] = append(h.entries[entry.ScheduleID], *entry)
	return nil
}

// ListHistory returns up to limit entries of the schedule, newest first.
func (h *HistoryStore) ListHistory(_ context.Context, scheduleID id.ID, limit int) ([]pricing.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := h.entries[scheduleID]
	out := make([]pricing.HistoryEntry, 0, min(len(all), limit))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
