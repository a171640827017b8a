// Package memory provides an in-process price schedule store for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"pricebook/internal/core/apperror"
	"pricebook/internal/core/id"
	"pricebook/internal/domain"
	"pricebook/internal/domain/pricing"
)

const tableName = "price_schedules"

var (
	_ pricing.Repository       = (*ScheduleStore)(nil)
	_ pricing.GenerationSource = (*ScheduleStore)(nil)
)

// ScheduleStore keeps schedules in a map guarded by a RWMutex.
// It enforces the same uniqueness and optimistic locking rules as the Postgres store.
type ScheduleStore struct {
	mu    sync.RWMutex
	byID  map[id.ID]*pricing.PriceSchedule
	order []id.ID
	gens  map[string]int64
}

// NewScheduleStore creates an empty store.
func NewScheduleStore() *ScheduleStore {
	return &ScheduleStore{
		byID: make(map[id.ID]*pricing.PriceSchedule),
		gens: make(map[string]int64),
	}
}

// ItemGeneration implements pricing.GenerationSource.
func (m *ScheduleStore) ItemGeneration(_ context.Context, itemID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[itemID], nil
}

// Create inserts s.
func (m *ScheduleStore) Create(_ context.Context, s *pricing.PriceSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[s.ID]; ok {
		return apperror.NewDuplicate(tableName, "id", s.ID.String())
	}
	if err := m.checkUniqueLocked(s); err != nil {
		return err
	}
	m.byID[s.ID] = s.Clone()
	m.order = append(m.order, s.ID)
	m.gens[s.ItemID]++
	return nil
}

// GetByID returns a copy of the stored schedule.
func (m *ScheduleStore) GetByID(_ context.Context, scheduleID id.ID) (*pricing.PriceSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[scheduleID]
	if !ok {
		return nil, apperror.NewNotFound(tableName, scheduleID.String())
	}
	return s.Clone(), nil
}

// ListByItem returns copies of every schedule of the item, in insertion order.
func (m *ScheduleStore) ListByItem(_ context.Context, itemID string) ([]*pricing.PriceSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*pricing.PriceSchedule, 0)
	for _, sid := range m.order {
		if s := m.byID[sid]; s.ItemID == itemID {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

// Update replaces the stored schedule if s.Version matches and bumps the version.
func (m *ScheduleStore) Update(_ context.Context, s *pricing.PriceSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[s.ID]
	if !ok {
		return apperror.NewNotFound(tableName, s.ID.String())
	}
	if cur.Version != s.Version {
		return apperror.NewConcurrentModification(tableName, s.ID.String())
	}
	if !s.IsCancelled() {
		if err := m.checkUniqueLocked(s); err != nil {
			return err
		}
	}

	s.BaseEntity.Touch()
	next := s.Clone()
	next.CreatedAt = cur.CreatedAt
	next.CreatedBy = cur.CreatedBy
	m.byID[s.ID] = next
	m.gens[cur.ItemID]++
	if s.ItemID != cur.ItemID {
		m.gens[s.ItemID]++
	}
	return nil
}

// Delete removes the schedule.
func (m *ScheduleStore) Delete(_ context.Context, scheduleID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[scheduleID]
	if !ok {
		return apperror.NewNotFound(tableName, scheduleID.String())
	}
	delete(m.byID, scheduleID)
	m.gens[cur.ItemID]++
	for i, sid := range m.order {
		if sid == scheduleID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// List filters, orders and pages the stored schedules.
func (m *ScheduleStore) List(_ context.Context, filter pricing.ListFilter) (domain.ListResult[*pricing.PriceSchedule], error) {
	ob, err := pricing.ParseOrderBy(filter.OrderBy)
	if err != nil {
		return domain.ListResult[*pricing.PriceSchedule]{}, err
	}

	m.mu.RLock()
	matched := make([]*pricing.PriceSchedule, 0)
	for _, sid := range m.order {
		s := m.byID[sid]
		if matches(s, filter) {
			matched = append(matched, s.Clone())
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		c := compare(matched[i], matched[j], ob.Field)
		if c == 0 {
			c = id.Compare(matched[i].ID, matched[j].ID)
		}
		if ob.Desc {
			return c > 0
		}
		return c < 0
	})
	return domain.Paginate(matched, filter.Page), nil
}

// checkUniqueLocked rejects a second live schedule with the same item, customer and date.
func (m *ScheduleStore) checkUniqueLocked(s *pricing.PriceSchedule) error {
	for _, other := range m.byID {
		if other.ID == s.ID || other.IsCancelled() {
			continue
		}
		if other.ScopeKey() == s.ScopeKey() && other.EffectiveDate.Equal(s.EffectiveDate) {
			return apperror.NewDuplicate(tableName, "item_id,customer_id,effective_date", s.EffectiveDate.String())
		}
	}
	return nil
}

func matches(s *pricing.PriceSchedule, f pricing.ListFilter) bool {
	if f.ItemID != "" && s.ItemID != f.ItemID {
		return false
	}
	if f.CustomerID != nil && s.CustomerKey() != *f.CustomerID {
		return false
	}
	if f.Scope != "" && s.Scope() != f.Scope {
		return false
	}
	if f.Cancelled != nil && s.IsCancelled() != *f.Cancelled {
		return false
	}
	if !f.From.IsZero() && s.EffectiveDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.EffectiveDate.After(f.To) {
		return false
	}
	return true
}

func compare(a, b *pricing.PriceSchedule, field string) int {
	switch field {
	case pricing.SortItemID:
		return strings.Compare(a.ItemID, b.ItemID)
	case pricing.SortCustomerID:
		return strings.Compare(a.CustomerKey(), b.CustomerKey())
	case pricing.SortBasePrice:
		return a.BasePrice.Cmp(b.BasePrice)
	case pricing.SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case pricing.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.EffectiveDate.Compare(b.EffectiveDate)
	}
}
