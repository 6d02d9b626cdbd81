// Package main backfills historical close prices for one or more assets
// over a date range, for seeding a fresh deployment or repairing gaps.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/portfolio-engine/internal/config"
	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/marketdata"
	"github.com/portfolio-engine/internal/storage"
	"github.com/portfolio-engine/internal/timeseries"
)

func main() {
	var (
		assets = flag.String("assets", "", "comma-separated asset symbols to backfill (required)")
		from   = flag.String("from", "", "range start, YYYY-MM-DD (required)")
		to     = flag.String("to", "", "range end, YYYY-MM-DD (defaults to today)")
	)
	flag.Parse()

	if *assets == "" || *from == "" {
		flag.Usage()
		log.Fatal("both -assets and -from are required")
	}
	start, err := timeseries.ParseDate(*from)
	if err != nil {
		log.Fatalf("invalid -from: %v", err)
	}
	end := timeseries.Today()
	if *to != "" {
		if end, err = timeseries.ParseDate(*to); err != nil {
			log.Fatalf("invalid -to: %v", err)
		}
	}
	if end.Before(start) {
		log.Fatal("-to must not precede -from")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		logging.ParseFormat(cfg.Logging.Format),
	)

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer postgres.Close()

	marketClient := marketdata.NewClient(marketdata.ClientOptions{
		BaseURL:           cfg.MarketData.BaseURL,
		APIKey:            cfg.MarketData.APIKey,
		RequestsPerSecond: cfg.MarketData.RequestsPerSecond,
		Burst:             cfg.MarketData.Burst,
		Timeout:           cfg.MarketData.Timeout,
		Logger:            logger,
	})
	priceSync := marketdata.NewSyncService(marketClient, storage.NewPriceRepository(postgres.Pool()), logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	failures := 0
	for _, asset := range strings.Split(*assets, ",") {
		asset = strings.TrimSpace(asset)
		if asset == "" {
			continue
		}
		n, err := priceSync.SyncHistoricalData(ctx, asset, start, end)
		if err != nil {
			logger.WithError(err).WithField("asset_id", asset).Error("backfill failed")
			failures++
			continue
		}
		logger.WithFields(map[string]any{"asset_id": asset, "points": n}).Info("backfill complete")
	}
	if failures > 0 {
		logger.WithField("failures", failures).Fatal("backfill finished with failures")
	}
}
