// Package main loads price schedules through the pricing service.
//
// Usage:
//
//	seed                 load a small demo price book
//	seed schedules.json  load rows from a JSON array of schedules
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"pricebook/internal/app"
	appctx "pricebook/internal/core/context"
	"pricebook/internal/core/types"
	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/http/v1/dto"
	"pricebook/pkg/config"
	"pricebook/pkg/logger"
)

const seedUser = "seed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: seedUser})
	ctx = logger.WithLogger(ctx, log)

	st, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer st.Close()

	svc, err := app.NewService(cfg, st, nil, log)
	if err != nil {
		log.Fatalw("failed to build pricing service", "error", err)
	}

	var rows []pricing.CreateInput
	if len(os.Args) > 1 {
		rows, err = readRows(os.Args[1])
		if err != nil {
			log.Fatalw("failed to read seed file", "path", os.Args[1], "error", err)
		}
	} else {
		rows = demoRows(svc.Today())
	}

	report := svc.BulkCreate(ctx, rows)
	for _, r := range report.Rows {
		if r.Error != nil {
			log.Warnw("row rejected", "row", r.Row, "error", r.Error)
		}
	}
	log.Infow("seeding completed", "created", report.Created, "failed", report.Failed)
}

func readRows(path string) ([]pricing.CreateInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reqs []dto.CreateScheduleRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	rows := make([]pricing.CreateInput, len(reqs))
	for i := range reqs {
		rows[i] = reqs[i].ToInput()
	}
	return rows, nil
}

// demoRows builds a price book around today: an expired, an active and a pending global
// price per item plus one customer contract.
func demoRows(today types.Date) []pricing.CreateInput {
	items := []struct {
		id    string
		price string
	}{
		{"SKU-1001", "120.00"},
		{"SKU-1002", "48.50"},
		{"SKU-1003", "9.99"},
	}
	contract := "CUST-ACME"

	var rows []pricing.CreateInput
	for _, it := range items {
		base := types.MustMoney(it.price)
		rows = append(rows,
			pricing.CreateInput{
				ItemID:        it.id,
				EffectiveDate: today.AddDays(-180),
				BasePrice:     base.Mul(types.MustMoney("0.95")).Round(2),
				TaxPct:        types.MoneyPtr("20"),
				Notes:         "previous list price",
			},
			pricing.CreateInput{
				ItemID:        it.id,
				EffectiveDate: today.AddDays(-30),
				BasePrice:     base,
				Discount1Pct:  types.MoneyPtr("5"),
				TaxPct:        types.MoneyPtr("20"),
			},
			pricing.CreateInput{
				ItemID:        it.id,
				EffectiveDate: today.AddDays(30),
				BasePrice:     base.Mul(types.MustMoney("1.04")).Round(2),
				TaxPct:        types.MoneyPtr("20"),
				Notes:         "announced increase",
			},
			pricing.CreateInput{
				ItemID:        it.id,
				CustomerID:    &contract,
				EffectiveDate: types.DateOf(time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)),
				BasePrice:     base,
				Discount1Pct:  types.MoneyPtr("10"),
				Discount2Pct:  types.MoneyPtr("2.5"),
				TaxPct:        types.MoneyPtr("20"),
				Notes:         "annual contract",
			},
		)
	}
	return rows
}
