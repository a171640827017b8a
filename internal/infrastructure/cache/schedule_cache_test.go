package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebook/internal/core/apperror"
	"pricebook/internal/core/entity"
	"pricebook/internal/core/types"
	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/storage/memory"
	"pricebook/pkg/logger"
)

type fakeRedis struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingRepo struct {
	*memory.ScheduleStore
	reads  int
	genErr error
}

func (r *countingRepo) ListByItem(ctx context.Context, itemID string) ([]*pricing.PriceSchedule, error) {
	r.reads++
	return r.ScheduleStore.ListByItem(ctx, itemID)
}

func (r *countingRepo) ItemGeneration(ctx context.Context, itemID string) (int64, error) {
	if r.genErr != nil {
		return 0, r.genErr
	}
	return r.ScheduleStore.ItemGeneration(ctx, itemID)
}

func newSchedule(item string, day int) *pricing.PriceSchedule {
	return &pricing.PriceSchedule{
		BaseRecord:          entity.NewBaseRecord(time.Now()),
		ItemID:              item,
		EffectiveDate:       types.NewDate(2024, 1, 1).AddDays(day),
		BasePrice:           types.MustMoney("12000"),
		Discount1Pct:        types.MoneyPtr("5"),
		PriceAfterDiscount1: types.MustMoney("11400"),
		PriceAfterDiscount2: types.MustMoney("11400"),
		Status:              pricing.StatusPending,
		Notes:               strings.Repeat("n", 40),
	}
}

func seed(t *testing.T, repo *countingRepo, item string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), newSchedule(item, i)))
	}
}

func newCache(t *testing.T, threshold int) (*ScheduleCache, *countingRepo, *fakeRedis) {
	t.Helper()
	repo := &countingRepo{ScheduleStore: memory.NewScheduleStore()}
	store := newFakeRedis()
	c, err := NewScheduleCache(repo, store, Config{TTL: time.Minute, CompressThreshold: threshold}, logger.Nop())
	require.NoError(t, err)
	return c, repo, store
}

func currentKey(t *testing.T, repo *countingRepo, item string) string {
	t.Helper()
	gen, err := repo.ScheduleStore.ItemGeneration(context.Background(), item)
	require.NoError(t, err)
	return itemKey(item, gen)
}

func TestItemKey(t *testing.T) {
	assert.Equal(t, "pricebook:schedules:item:SKU-1:g0", itemKey("SKU-1", 0))
	assert.Equal(t, "pricebook:schedules:item:SKU-1:g42", itemKey("SKU-1", 42))
}

func TestNewScheduleCache_RequiresGenerations(t *testing.T) {
	type plainRepo struct{ pricing.Repository }
	_, err := NewScheduleCache(plainRepo{memory.NewScheduleStore()}, newFakeRedis(), Config{}, logger.Nop())
	assert.Error(t, err)
}

func TestScheduleCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	c, repo, store := newCache(t, 1<<20)
	seed(t, repo, "SKU-1", 2)
	key := currentKey(t, repo, "SKU-1")

	first, err := c.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, repo.reads)
	assert.Equal(t, time.Minute, store.ttls[key])
	assert.Equal(t, encodingJSON, store.data[key][0])

	second, err := c.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.reads, "served from redis")
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].BasePrice.Equal(second[0].BasePrice))
	assert.Equal(t, "5", second[0].Discount1Pct.String())
	assert.Equal(t, first[1].EffectiveDate, second[1].EffectiveDate)
}

func TestScheduleCache_CompressesLargeLists(t *testing.T) {
	ctx := context.Background()
	c, repo, store := newCache(t, 64)
	seed(t, repo, "SKU-1", 20)

	_, err := c.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, encodingZstd, store.data[currentKey(t, repo, "SKU-1")][0])

	list, err := c.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Len(t, list, 20)
	assert.Equal(t, 1, repo.reads)
}

func TestScheduleCache_Bypass(t *testing.T) {
	ctx := context.Background()
	c, repo, store := newCache(t, 0)
	seed(t, repo, "SKU-1", 1)

	_, err := c.ListByItem(pricing.WithoutSharedCache(ctx), "SKU-1")
	require.NoError(t, err)
	assert.Empty(t, store.data, "bypass never populates redis")

	_, _ = c.ListByItem(ctx, "SKU-1")
	assert.Contains(t, store.data, currentKey(t, repo, "SKU-1"))
}

func TestScheduleCache_WriteRetiresEntries(t *testing.T) {
	ctx := context.Background()
	c, repo, store := newCache(t, 0)
	seed(t, repo, "SKU-1", 1)

	_, err := c.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	oldKey := currentKey(t, repo, "SKU-1")

	// Redis is unreachable for writes while the schedule changes.
	store.setErr = errors.New("connection reset")
	require.NoError(t, repo.Create(ctx, newSchedule("SKU-1", 5)))

	list, err := c.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, repo.reads)
	assert.Contains(t, store.data, oldKey, "stale entry is unreachable rather than deleted")
}

func TestScheduleCache_LateFillCannotShadowWrite(t *testing.T) {
	ctx := context.Background()
	c, repo, store := newCache(t, 0)
	seed(t, repo, "SKU-1", 1)

	// A reader loaded the list before the write and stores it only after the commit.
	stale, err := repo.ScheduleStore.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	staleKey := currentKey(t, repo, "SKU-1")

	stale[0].Status = pricing.StatusCancelled
	require.NoError(t, repo.Update(ctx, stale[0]))

	stale[0].Status = pricing.StatusPending
	payload, err := c.encode(stale)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, staleKey, payload, time.Minute).Err())

	list, err := c.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsCancelled())
}

func TestScheduleCache_CancelledScheduleStopsResolving(t *testing.T) {
	ctx := context.Background()
	c, repo, store := newCache(t, 0)
	svc := pricing.NewService(pricing.ServiceConfig{
		Repo:   c,
		Clock:  func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) },
		Logger: logger.Nop(),
	})

	ps, err := svc.Create(ctx, pricing.CreateInput{
		ItemID:        "SKU-1",
		EffectiveDate: types.MustDate("2024-01-01"),
		BasePrice:     types.MustMoney("10"),
	})
	require.NoError(t, err)

	ep, err := svc.ResolveEffectivePrice(ctx, pricing.Query{ItemID: "SKU-1"})
	require.NoError(t, err)
	assert.Equal(t, ps.ID, *ep.ScheduleID)
	require.Contains(t, store.data, currentKey(t, repo, "SKU-1"))

	store.setErr = errors.New("connection reset")
	_, err = svc.Cancel(ctx, ps.ID, nil)
	require.NoError(t, err)

	_, err = svc.ResolveEffectivePrice(ctx, pricing.Query{ItemID: "SKU-1"})
	assert.True(t, apperror.IsNotFound(err), "got %v", err)
}

func TestScheduleCache_DegradesOnRedisErrors(t *testing.T) {
	ctx := context.Background()
	c, repo, store := newCache(t, 0)
	seed(t, repo, "SKU-1", 1)
	key := currentKey(t, repo, "SKU-1")

	store.getErr = errors.New("connection refused")
	list, err := c.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	store.getErr = nil
	store.data[key] = "?garbage"
	list, err = c.ListByItem(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, encodingJSON, store.data[key][0], "bad entry replaced")
}

func TestScheduleCache_GenerationErrorReadsUncached(t *testing.T) {
	ctx := context.Background()
	c, repo, store := newCache(t, 0)
	seed(t, repo, "SKU-1", 1)
	repo.genErr = errors.New("db timeout")

	for i := 0; i < 2; i++ {
		list, err := c.ListByItem(ctx, "SKU-1")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
	assert.Equal(t, 2, repo.reads)
	assert.Empty(t, store.data)
}

func TestRedisOptions(t *testing.T) {
	_, err := redisOptions(RedisConfig{})
	assert.Error(t, err)

	opts, err := redisOptions(RedisConfig{URL: "redis://:secret@cache:6380/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = redisOptions(RedisConfig{Address: "localhost:6379", DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 1, opts.DB)
}
