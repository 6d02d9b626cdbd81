// Package main is the one-shot batch runner: it computes performance and
// rankings for every active session once and exits. Intended for external
// cron triggers where the long-lived scheduler is not wanted.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/portfolio-engine/internal/config"
	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/marketdata"
	"github.com/portfolio-engine/internal/performance"
	"github.com/portfolio-engine/internal/storage"
)

func main() {
	var (
		sessionID = flag.String("session", "", "compute a single session instead of all active sessions")
		timeout   = flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	)
	flag.Parse()

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

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redis.Close()

	pool := postgres.Pool()
	marketClient := marketdata.NewClient(marketdata.ClientOptions{
		BaseURL:           cfg.MarketData.BaseURL,
		APIKey:            cfg.MarketData.APIKey,
		RequestsPerSecond: cfg.MarketData.RequestsPerSecond,
		Burst:             cfg.MarketData.Burst,
		Timeout:           cfg.MarketData.Timeout,
		Logger:            logger,
	})
	priceSync := marketdata.NewSyncService(marketClient, storage.NewPriceRepository(pool), logger)

	svc := performance.NewService(
		storage.NewSessionRepository(pool),
		storage.NewPortfolioRepository(pool),
		storage.NewTransactionRepository(pool),
		priceSync,
		storage.NewQuoteCache(redis.Client(), 5*time.Minute),
		storage.NewPerformanceRepository(pool),
		storage.NewRankingRepository(pool),
		performance.Config{
			BenchmarkAssetID:     cfg.MarketData.BenchmarkSymbol,
			PerPortfolioBaseline: cfg.Ranking.PerPortfolioBaseline,
		},
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *sessionID != "" {
		if err := svc.ComputeSessionPerformance(ctx, *sessionID); err != nil {
			logger.WithError(err).Fatal("session performance run failed")
		}
		if err := svc.ComputeAndStoreSessionRankings(ctx, *sessionID); err != nil {
			logger.WithError(err).Fatal("session ranking run failed")
		}
		logger.WithField("session_id", *sessionID).Info("run complete")
		return
	}

	if err := svc.ComputeAllActiveSessionsPerformance(ctx); err != nil {
		logger.WithError(err).Fatal("active session sweep failed")
	}
	logger.Info("run complete")
}
