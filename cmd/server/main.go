// Package main runs the portfolio engine API server with the background
// computation scheduler.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portfolio-engine/internal/api"
	"github.com/portfolio-engine/internal/config"
	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/marketdata"
	"github.com/portfolio-engine/internal/performance"
	"github.com/portfolio-engine/internal/scheduler"
	"github.com/portfolio-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		logging.ParseFormat(cfg.Logging.Format),
	)
	logger.WithFields(map[string]any{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("portfolio engine starting")

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

	logger.Info("database connections established")

	pool := postgres.Pool()
	sessionRepo := storage.NewSessionRepository(pool)
	portfolioRepo := storage.NewPortfolioRepository(pool)
	transactionRepo := storage.NewTransactionRepository(pool)
	priceRepo := storage.NewPriceRepository(pool)
	performanceRepo := storage.NewPerformanceRepository(pool)
	rankingRepo := storage.NewRankingRepository(pool)
	quoteCache := storage.NewQuoteCache(redis.Client(), 5*time.Minute)

	marketClient := marketdata.NewClient(marketdata.ClientOptions{
		BaseURL:           cfg.MarketData.BaseURL,
		APIKey:            cfg.MarketData.APIKey,
		RequestsPerSecond: cfg.MarketData.RequestsPerSecond,
		Burst:             cfg.MarketData.Burst,
		Timeout:           cfg.MarketData.Timeout,
		Logger:            logger,
	})
	priceSync := marketdata.NewSyncService(marketClient, priceRepo, logger)

	svc := performance.NewService(
		sessionRepo, portfolioRepo, transactionRepo, priceSync, quoteCache,
		performanceRepo, rankingRepo,
		performance.Config{
			BenchmarkAssetID:     cfg.MarketData.BenchmarkSymbol,
			PerPortfolioBaseline: cfg.Ranking.PerPortfolioBaseline,
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(svc, sessionRepo, cfg.Scheduler.RankingInterval, logger)
		if err := sched.Start(ctx); err != nil {
			logger.WithError(err).Fatal("failed to start scheduler")
		}
		defer sched.Stop()
	} else {
		logger.Info("scheduler disabled, computations run only via API triggers")
	}

	server := api.NewServer(
		&api.ServerConfig{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		svc, rankingRepo, performanceRepo, logger,
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Fatal("server exited")
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("portfolio engine stopped")
}
