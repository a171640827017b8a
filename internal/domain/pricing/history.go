package pricing

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"pricebook/internal/core/id"
)

// FieldChange is the before and after value of one schedule field, in JSON form.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// HistoryEntry records one committed mutation of a schedule.
type HistoryEntry struct {
	ID         id.ID                  `json:"id"`
	ScheduleID id.ID                  `json:"scheduleId"`
	Action     EventType              `json:"action"`
	UserID     string                 `json:"userId,omitempty"`
	Changes    map[string]FieldChange `json:"changes"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// HistoryStore keeps the change history of schedules. Record runs inside the writing
// transaction.
type HistoryStore interface {
	Record(ctx context.Context, entry *HistoryEntry) error
	ListHistory(ctx context.Context, scheduleID id.ID, limit int) ([]HistoryEntry, error)
}

// Bookkeeping fields are left out of diffs.
var diffIgnored = map[string]bool{
	"id":        true,
	"version":   true,
	"createdAt": true,
	"updatedAt": true,
	"createdBy": true,
	"updatedBy": true,
}

// Diff lists the fields that differ between prev and next, keyed by JSON name.
// A nil side contributes nulls, so creations and deletions list every field.
func Diff(prev, next *PriceSchedule) (map[string]FieldChange, error) {
	before, err := fieldsOf(prev)
	if err != nil {
		return nil, err
	}
	after, err := fieldsOf(next)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]FieldChange)
	for k, nv := range after {
		if ov, ok := before[k]; !ok || !reflect.DeepEqual(ov, nv) {
			changes[k] = FieldChange{Old: before[k], New: nv}
		}
	}
	for k, ov := range before {
		if _, ok := after[k]; !ok {
			changes[k] = FieldChange{Old: ov}
		}
	}
	return changes, nil
}

func fieldsOf(s *PriceSchedule) (map[string]any, error) {
	if s == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for k := range diffIgnored {
		delete(fields, k)
	}
	return fields, nil
}
