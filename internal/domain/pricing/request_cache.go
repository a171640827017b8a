package pricing

import (
	"context"
	"sync"
)

// requestCache memoizes per-item schedule lists for the lifetime of one request.
type requestCache struct {
	mu    sync.Mutex
	items map[string][]*PriceSchedule
}

type requestCacheKey struct{}

// WithRequestCache returns a context whose reads of the same item share one store lookup.
// Writes made through the returned context drop the affected items.
// Calling it on a context that already carries a cache returns ctx unchanged.
func WithRequestCache(ctx context.Context) context.Context {
	if cacheFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, requestCacheKey{}, &requestCache{items: make(map[string][]*PriceSchedule)})
}

func cacheFrom(ctx context.Context) *requestCache {
	c, _ := ctx.Value(requestCacheKey{}).(*requestCache)
	return c
}

func (c *requestCache) get(itemID string) ([]*PriceSchedule, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.items[itemID]
	return list, ok
}

func (c *requestCache) put(itemID string, list []*PriceSchedule) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items[itemID] = list
	c.mu.Unlock()
}

func (c *requestCache) drop(itemIDs ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	for _, itemID := range itemIDs {
		delete(c.items, itemID)
	}
	c.mu.Unlock()
}

func cloneAll(list []*PriceSchedule) []*PriceSchedule {
	out := make([]*PriceSchedule, len(list))
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}
