// Package cache provides a Redis read-through cache for per-item schedule lists.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"pricebook/internal/domain/pricing"
	"pricebook/pkg/logger"
)

const keyPrefix = "pricebook:schedules:item:"

// Payload encodings, stored as the first byte of each cached value.
const (
	encodingJSON byte = 'j'
	encodingZstd byte = 'z'
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
}

// RedisConfig describes how to reach Redis.
type RedisConfig struct {
	URL          string
	Address      string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisClient builds a client from cfg and verifies it with a ping.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func redisOptions(cfg RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Config tunes ScheduleCache.
type Config struct {
	TTL time.Duration

	// CompressThreshold is the encoded size in bytes above which values are zstd-compressed.
	CompressThreshold int
}

// ScheduleCache decorates a pricing.Repository with a Redis copy of ListByItem results.
// Entries are keyed by the item generation, so a committed write retires every entry of
// the item without touching Redis. Other methods go straight to the wrapped repository.
// Redis failures degrade to uncached reads and are only logged.
type ScheduleCache struct {
	pricing.Repository

	gens    pricing.GenerationSource
	store   cmdable
	cfg     Config
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	log     *logger.Logger
}

var _ pricing.Repository = (*ScheduleCache)(nil)

// NewScheduleCache wraps repo, which must also be a pricing.GenerationSource.
// A zero TTL means five minutes; a zero threshold means 8 KiB.
func NewScheduleCache(repo pricing.Repository, store cmdable, cfg Config, log *logger.Logger) (*ScheduleCache, error) {
	gens, ok := repo.(pricing.GenerationSource)
	if !ok {
		return nil, fmt.Errorf("schedule cache: %T does not report item generations", repo)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.CompressThreshold <= 0 {
		cfg.CompressThreshold = 8 * 1024
	}
	if log == nil {
		log = logger.Default()
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ScheduleCache{
		Repository: repo,
		gens:       gens,
		store:      store,
		cfg:        cfg,
		encoder:    encoder,
		decoder:    decoder,
		log:        log.WithComponent("schedule_cache"),
	}, nil
}

func itemKey(itemID string, gen int64) string {
	return keyPrefix + itemID + ":g" + strconv.FormatInt(gen, 10)
}

// ListByItem serves the item's schedules from Redis when present. Contexts marked with
// pricing.WithoutSharedCache always read the wrapped repository and leave Redis untouched.
func (c *ScheduleCache) ListByItem(ctx context.Context, itemID string) ([]*pricing.PriceSchedule, error) {
	if pricing.SharedCacheBypassed(ctx) {
		return c.Repository.ListByItem(ctx, itemID)
	}

	// The generation is read before the rows, so an entry never holds data older than its key.
	gen, err := c.gens.ItemGeneration(ctx, itemID)
	if err != nil {
		c.log.WithContext(ctx).Warnw("item generation unavailable, reading uncached", "item_id", itemID, "error", err)
		return c.Repository.ListByItem(ctx, itemID)
	}

	key := itemKey(itemID, gen)
	raw, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		list, decodeErr := c.decode(raw)
		if decodeErr == nil {
			return list, nil
		}
		c.log.WithContext(ctx).Warnw("discarding undecodable cache entry", "key", key, "error", decodeErr)
	case !errors.Is(err, redis.Nil):
		c.log.WithContext(ctx).Warnw("schedule cache read failed", "key", key, "error", err)
	}

	list, err := c.Repository.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	payload, err := c.encode(list)
	if err != nil {
		c.log.WithContext(ctx).Warnw("schedule cache encode failed", "key", key, "error", err)
		return list, nil
	}
	if err := c.store.Set(ctx, key, payload, c.cfg.TTL).Err(); err != nil {
		c.log.WithContext(ctx).Warnw("schedule cache write failed", "key", key, "error", err)
	}
	return list, nil
}

// Ping checks Redis connectivity.
func (c *ScheduleCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

func (c *ScheduleCache) encode(list []*pricing.PriceSchedule) ([]byte, error) {
	body, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	if len(body) <= c.cfg.CompressThreshold {
		return append([]byte{encodingJSON}, body...), nil
	}
	return c.encoder.EncodeAll(body, []byte{encodingZstd}), nil
}

func (c *ScheduleCache) decode(raw []byte) ([]*pricing.PriceSchedule, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty cache entry")
	}
	body := raw[1:]
	switch raw[0] {
	case encodingJSON:
	case encodingZstd:
		var err error
		if body, err = c.decoder.DecodeAll(body, nil); err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown cache encoding %q", raw[0])
	}

	list := make([]*pricing.PriceSchedule, 0)
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return list, nil
}
