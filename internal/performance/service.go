package performance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/marketdata"
	"github.com/portfolio-engine/internal/metrics"
	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

// SessionStore loads sessions and their portfolios.
type SessionStore interface {
	GetByID(ctx context.Context, id string) (*models.GameSession, error)
	ListActive(ctx context.Context) ([]models.GameSession, error)
	ListPortfolios(ctx context.Context, sessionID string) ([]models.PortfolioWithOwner, error)
}

// PortfolioStore loads a portfolio's live holdings.
type PortfolioStore interface {
	ListHoldings(ctx context.Context, portfolioID string) ([]models.Holding, error)
}

// TransactionStore loads the immutable trade history.
type TransactionStore interface {
	ListByPortfolioUpTo(ctx context.Context, portfolioID string, end timeseries.Date) ([]models.Transaction, error)
}

// HistoricalPrices reads locally synced close series and can backfill gaps
// from the upstream provider.
type HistoricalPrices interface {
	GetHistoricalData(ctx context.Context, assetID string, start, end timeseries.Date) (*timeseries.Series, error)
	SyncHistoricalData(ctx context.Context, assetID string, start, end timeseries.Date) (int, error)
}

// QuoteReader bulk-reads the latest cached quotes.
type QuoteReader interface {
	GetMany(ctx context.Context, assetIDs []string) (map[string]decimal.Decimal, error)
}

// PerformanceWriter replaces a portfolio's performance rows for a date range.
type PerformanceWriter interface {
	ReplaceRange(ctx context.Context, portfolioID string, start, end timeseries.Date, records []models.PerformanceRecord) error
}

// RankingWriter replaces a session's leaderboard rows.
type RankingWriter interface {
	ReplaceForSession(ctx context.Context, sessionID string, records []models.RankingRecord) error
}

// Config carries the computation policy knobs.
type Config struct {
	// BenchmarkAssetID is the index symbol performance is measured against.
	BenchmarkAssetID string
	// PerPortfolioBaseline scales a user's return baseline by their
	// portfolio count (startingCash × count) instead of using a single
	// un-multiplied allocation.
	PerPortfolioBaseline bool
}

// Service runs the scheduled performance and ranking computations. It is
// safe for one run at a time per session; concurrent runs against the same
// session are an external scheduling error.
type Service struct {
	sessions     SessionStore
	portfolios   PortfolioStore
	transactions TransactionStore
	prices       HistoricalPrices
	quotes       QuoteReader
	perfWriter   PerformanceWriter
	rankWriter   RankingWriter
	cfg          Config
	log          *logging.Logger

	now   func() time.Time
	today func() timeseries.Date
}

func NewService(
	sessions SessionStore,
	portfolios PortfolioStore,
	transactions TransactionStore,
	prices HistoricalPrices,
	quotes QuoteReader,
	perfWriter PerformanceWriter,
	rankWriter RankingWriter,
	cfg Config,
	log *logging.Logger,
) *Service {
	return &Service{
		sessions:     sessions,
		portfolios:   portfolios,
		transactions: transactions,
		prices:       prices,
		quotes:       quotes,
		perfWriter:   perfWriter,
		rankWriter:   rankWriter,
		cfg:          cfg,
		log:          log.WithField("component", "performance_service"),
		now:          time.Now,
		today:        timeseries.Today,
	}
}

// ComputeSessionPerformance reconstructs daily values and rebuilds the
// performance rows for every portfolio in the session, over the window
// [session start, min(today, session end)]. Per-portfolio failures are
// isolated: one bad portfolio does not abort its siblings.
func (s *Service) ComputeSessionPerformance(ctx context.Context, sessionID string) error {
	started := s.now()
	log := s.log.WithField("session_id", sessionID)

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		metrics.PerformanceRunsTotal.WithLabelValues("error").Inc()
		return err
	}
	start, end := session.ComputationWindow(s.today())
	if end.Before(start) {
		log.Warn("session has not started yet, skipping performance run")
		metrics.PerformanceRunsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	portfolios, err := s.sessions.ListPortfolios(ctx, sessionID)
	if err != nil {
		metrics.PerformanceRunsTotal.WithLabelValues("error").Inc()
		return err
	}

	// Load every portfolio's history first so the price book can be
	// prefetched once for the whole session.
	txsByPortfolio := make(map[string][]models.Transaction, len(portfolios))
	assetSet := make(map[string]struct{})
	for _, p := range portfolios {
		txs, err := s.transactions.ListByPortfolioUpTo(ctx, p.ID, end)
		if err != nil {
			log.WithError(err).WithField("portfolio_id", p.ID).Error("failed to load transactions, skipping portfolio")
			metrics.PortfoliosProcessed.WithLabelValues("error").Inc()
			continue
		}
		txsByPortfolio[p.ID] = txs
		for i := range txs {
			assetSet[txs[i].AssetID] = struct{}{}
		}
	}

	book := s.loadPriceBook(ctx, assetSet, start, end, log)
	benchmark := book.Series(s.cfg.BenchmarkAssetID)
	if benchmark.Len() == 0 {
		log.WithField("asset_id", s.cfg.BenchmarkAssetID).Warn("benchmark series is empty, outperformance will read as raw portfolio return")
	}

	for _, p := range portfolios {
		txs, ok := txsByPortfolio[p.ID]
		if !ok {
			continue
		}
		plog := log.WithField("portfolio_id", p.ID)

		daily := reconstructDailyValues(txs, book, session.StartingCash, start, end, plog)
		records := assemblePerformanceRecords(p.ID, daily, benchmark, session.StartingCash, s.now())

		if err := s.perfWriter.ReplaceRange(ctx, p.ID, start, end, records); err != nil {
			plog.WithError(err).Error("failed to persist performance records")
			metrics.PortfoliosProcessed.WithLabelValues("error").Inc()
			continue
		}
		metrics.PortfoliosProcessed.WithLabelValues("ok").Inc()
	}

	metrics.PerformanceRunsTotal.WithLabelValues("ok").Inc()
	metrics.PerformanceRunDuration.Observe(s.now().Sub(started).Seconds())
	log.WithFields(map[string]any{
		"portfolios": len(portfolios),
		"from":       start.String(),
		"to":         end.String(),
	}).Info("session performance run complete")
	return nil
}

// ComputeAllActiveSessionsPerformance runs the performance computation and
// the ranking aggregation for every active session. Per-session failures
// are logged and do not abort the remaining sessions.
func (s *Service) ComputeAllActiveSessionsPerformance(ctx context.Context) error {
	sessions, err := s.sessions.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err := s.ComputeSessionPerformance(ctx, session.ID); err != nil {
			s.log.WithError(err).WithField("session_id", session.ID).Error("session performance run failed")
		}
		if err := s.ComputeAndStoreSessionRankings(ctx, session.ID); err != nil {
			s.log.WithError(err).WithField("session_id", session.ID).Error("session ranking run failed")
		}
	}
	s.log.WithField("sessions", len(sessions)).Info("active session sweep complete")
	return nil
}

// loadPriceBook prefetches close series for every asset in assetSet plus the
// benchmark. Assets that come back empty get one backfill attempt against
// the upstream provider before being re-read; backfill failures degrade that
// asset to transaction-implied pricing rather than failing the run.
func (s *Service) loadPriceBook(ctx context.Context, assetSet map[string]struct{}, start, end timeseries.Date, log *logging.Logger) *marketdata.PriceBook {
	assetIDs := make([]string, 0, len(assetSet)+1)
	for assetID := range assetSet {
		assetIDs = append(assetIDs, assetID)
	}
	if s.cfg.BenchmarkAssetID != "" {
		if _, ok := assetSet[s.cfg.BenchmarkAssetID]; !ok {
			assetIDs = append(assetIDs, s.cfg.BenchmarkAssetID)
		}
	}

	book := marketdata.NewPriceBook(s.prices, log)
	book.Prefetch(ctx, assetIDs, start, end)

	var stale []string
	for _, assetID := range assetIDs {
		if book.Series(assetID).Len() > 0 {
			continue
		}
		if _, err := s.prices.SyncHistoricalData(ctx, assetID, start, end); err != nil {
			log.WithError(err).WithField("asset_id", assetID).Warn("price backfill failed, continuing without market data for asset")
			continue
		}
		stale = append(stale, assetID)
	}
	if len(stale) > 0 {
		book.Refresh(ctx, stale, start, end)
	}
	return book
}
