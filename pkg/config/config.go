// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"pricebook/internal/core/types"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Outbox  OutboxConfig
	Pricing PricingConfig
}

// Load reads an optional .env file from the working directory and then the environment.
// Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Pricing.StorageDriver {
	case StorageDriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("PRICEBOOK_DB_DSN is required for storage driver %q", StorageDriverPostgres)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Pricing.StorageDriver)
	}
	if c.Redis.Enabled && c.Redis.URL == "" && c.Redis.Address == "" {
		return errors.New("PRICEBOOK_REDIS_URL or PRICEBOOK_REDIS_ADDRESS is required when redis is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.New("PRICEBOOK_KAFKA_BROKERS and PRICEBOOK_KAFKA_TOPIC are required when kafka is enabled")
	}
	if _, err := c.Pricing.ParseBasePrices(); err != nil {
		return err
	}
	return nil
}

type AppConfig struct {
	Env             string        `envconfig:"PRICEBOOK_APP_ENV" default:"dev"`
	Port            string        `envconfig:"PRICEBOOK_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"PRICEBOOK_LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"PRICEBOOK_SHUTDOWN_TIMEOUT" default:"30s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN             string        `envconfig:"PRICEBOOK_DB_DSN"`
	MaxConns        int32         `envconfig:"PRICEBOOK_DB_MAX_CONNS" default:"25"`
	MinConns        int32         `envconfig:"PRICEBOOK_DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"PRICEBOOK_DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"PRICEBOOK_DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

type RedisConfig struct {
	Enabled           bool          `envconfig:"PRICEBOOK_REDIS_ENABLED" default:"false"`
	URL               string        `envconfig:"PRICEBOOK_REDIS_URL"`
	Address           string        `envconfig:"PRICEBOOK_REDIS_ADDRESS"`
	Password          string        `envconfig:"PRICEBOOK_REDIS_PASSWORD"`
	DB                int           `envconfig:"PRICEBOOK_REDIS_DB" default:"0"`
	PoolSize          int           `envconfig:"PRICEBOOK_REDIS_POOL_SIZE" default:"10"`
	DialTimeout       time.Duration `envconfig:"PRICEBOOK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"PRICEBOOK_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout      time.Duration `envconfig:"PRICEBOOK_REDIS_WRITE_TIMEOUT" default:"2s"`
	TTL               time.Duration `envconfig:"PRICEBOOK_REDIS_TTL" default:"5m"`
	CompressThreshold int           `envconfig:"PRICEBOOK_REDIS_COMPRESS_THRESHOLD" default:"8192"`
}

type KafkaConfig struct {
	Enabled      bool          `envconfig:"PRICEBOOK_KAFKA_ENABLED" default:"false"`
	Brokers      []string      `envconfig:"PRICEBOOK_KAFKA_BROKERS"`
	Topic        string        `envconfig:"PRICEBOOK_KAFKA_TOPIC" default:"pricebook.price-schedules"`
	WriteTimeout time.Duration `envconfig:"PRICEBOOK_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"PRICEBOOK_OUTBOX_POLL_INTERVAL" default:"500ms"`
	BatchSize    int           `envconfig:"PRICEBOOK_OUTBOX_BATCH_SIZE" default:"100"`
	MaxRetries   int           `envconfig:"PRICEBOOK_OUTBOX_MAX_RETRIES" default:"5"`
	Backoff      time.Duration `envconfig:"PRICEBOOK_OUTBOX_BACKOFF" default:"1m"`
	Retention    time.Duration `envconfig:"PRICEBOOK_OUTBOX_RETENTION" default:"168h"`
}

type PricingConfig struct {
	StorageDriver string `envconfig:"PRICEBOOK_STORAGE_DRIVER" default:"postgres"`

	// BasePrices is a comma separated item:price list, e.g. "SKU-1:120.00,SKU-2:80".
	BasePrices map[string]string `envconfig:"PRICEBOOK_BASE_PRICES"`
}

// ParseBasePrices converts BasePrices into money values. Nil when none are configured.
func (p PricingConfig) ParseBasePrices() (map[string]types.Money, error) {
	if len(p.BasePrices) == 0 {
		return nil, nil
	}
	out := make(map[string]types.Money, len(p.BasePrices))
	for item, raw := range p.BasePrices {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, errors.New("PRICEBOOK_BASE_PRICES: empty item id")
		}
		price, err := types.NewMoneyFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("PRICEBOOK_BASE_PRICES: item %s: %w", item, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("PRICEBOOK_BASE_PRICES: item %s: negative price", item)
		}
		out[item] = price
	}
	return out, nil
}
