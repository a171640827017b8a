// Command migrate applies the embedded database migrations.
//
// Usage:
//
//	migrate [up|down|status|version|redo|reset]
//	migrate to VERSION
package main

import (
	"context"
	"fmt"
	"os"

	"pricebook/internal/app"
	"pricebook/internal/infrastructure/storage/postgres"
	"pricebook/pkg/config"
	"pricebook/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Development: cfg.App.IsDev(), Service: "pricebook-migrate"})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cfg.Pricing.StorageDriver != config.StorageDriverPostgres {
		log.Fatalw("migrations need the postgres storage driver", "driver", cfg.Pricing.StorageDriver)
	}

	command := "up"
	args := os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, app.PoolConfig(cfg.DB))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	db := pool.SQLDB()
	defer func() { _ = db.Close() }()

	switch command {
	case "to":
		if len(args) != 1 {
			log.Fatalw("missing target version", "command", command)
		}
		err = postgres.MigrateTo(ctx, db, args[0])
	default:
		err = postgres.Migrate(ctx, db, command, args...)
	}
	if err != nil {
		log.Fatalw("migration failed", "command", command, "error", err)
	}
	log.Infow("migration finished", "command", command)
}
