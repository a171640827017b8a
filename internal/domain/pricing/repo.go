package pricing

import (
	"context"

	"pricebook/internal/core/id"
	"pricebook/internal/core/types"
	"pricebook/internal/domain"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	ItemID     string
	CustomerID *string
	Scope      Scope

	// Status filters on the status effective today. PENDING, ACTIVE and EXPIRED are
	// computed, so the service resolves them after loading.
	Status Status

	// Cancelled filters on the persisted status; used by stores.
	Cancelled *bool

	// Inclusive effective date range.
	From types.Date
	To   types.Date

	domain.Page
}

// Repository persists price schedules.
//
// Create and Update must reject a second non-cancelled schedule for the same
// (item, customer, effective date) with a DUPLICATE_ENTRY error. Update treats the
// schedule's Version as the expected stored version, fails with
// CONCURRENT_MODIFICATION when it differs and bumps Version on success.
type Repository interface {
	Create(ctx context.Context, s *PriceSchedule) error
	GetByID(ctx context.Context, scheduleID id.ID) (*PriceSchedule, error)
	ListByItem(ctx context.Context, itemID string) ([]*PriceSchedule, error)
	Update(ctx context.Context, s *PriceSchedule) error
	Delete(ctx context.Context, scheduleID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PriceSchedule], error)
}

// GenerationSource reports a per-item counter that grows with every committed write to
// the item's schedules, including writes that move a schedule away from the item.
// Shared caches key entries by it, so no entry can be served after a later write.
type GenerationSource interface {
	ItemGeneration(ctx context.Context, itemID string) (int64, error)
}

// BasePriceSource supplies a fallback list price when no schedule applies.
type BasePriceSource interface {
	BasePrice(ctx context.Context, itemID string) (types.Money, bool, error)
}

// StaticBasePrices is a fixed item -> base price table.
type StaticBasePrices map[string]types.Money

// BasePrice implements BasePriceSource.
func (m StaticBasePrices) BasePrice(_ context.Context, itemID string) (types.Money, bool, error) {
	p, ok := m[itemID]
	return p, ok, nil
}

type sharedCacheBypassKey struct{}

// WithoutSharedCache marks ctx so that caching repositories read through to storage.
// Write paths use it so that decisions inside a transaction never see a stale list.
func WithoutSharedCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, sharedCacheBypassKey{}, true)
}

// SharedCacheBypassed reports whether ctx was marked by WithoutSharedCache.
func SharedCacheBypassed(ctx context.Context) bool {
	v, _ := ctx.Value(sharedCacheBypassKey{}).(bool)
	return v
}
