package performance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/portfolio-engine/internal/errors"
	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

type mockSessionStore struct {
	sessions   map[string]*models.GameSession
	portfolios map[string][]models.PortfolioWithOwner
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{
		sessions:   make(map[string]*models.GameSession),
		portfolios: make(map[string][]models.PortfolioWithOwner),
	}
}

func (m *mockSessionStore) GetByID(_ context.Context, id string) (*models.GameSession, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, apperrors.NewNotFound("session", id)
}

func (m *mockSessionStore) ListActive(_ context.Context) ([]models.GameSession, error) {
	var out []models.GameSession
	for _, s := range m.sessions {
		if s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSessionStore) ListPortfolios(_ context.Context, sessionID string) ([]models.PortfolioWithOwner, error) {
	return m.portfolios[sessionID], nil
}

type mockPortfolioStore struct {
	holdings map[string][]models.Holding
	errs     map[string]error
}

func newMockPortfolioStore() *mockPortfolioStore {
	return &mockPortfolioStore{
		holdings: make(map[string][]models.Holding),
		errs:     make(map[string]error),
	}
}

func (m *mockPortfolioStore) ListHoldings(_ context.Context, portfolioID string) ([]models.Holding, error) {
	if err, ok := m.errs[portfolioID]; ok {
		return nil, err
	}
	return m.holdings[portfolioID], nil
}

type mockTransactionStore struct {
	txs  map[string][]models.Transaction
	errs map[string]error
}

func newMockTransactionStore() *mockTransactionStore {
	return &mockTransactionStore{
		txs:  make(map[string][]models.Transaction),
		errs: make(map[string]error),
	}
}

func (m *mockTransactionStore) ListByPortfolioUpTo(_ context.Context, portfolioID string, end timeseries.Date) ([]models.Transaction, error) {
	if err, ok := m.errs[portfolioID]; ok {
		return nil, err
	}
	var out []models.Transaction
	for _, tx := range m.txs[portfolioID] {
		if !tx.Date.After(end) {
			out = append(out, tx)
		}
	}
	return out, nil
}

type mockHistoricalPrices struct {
	series    map[string]*timeseries.Series
	syncCalls []string
	// synced series become visible only after a SyncHistoricalData call,
	// mimicking a backfill filling a local gap.
	pending map[string]*timeseries.Series
}

func newMockHistoricalPrices() *mockHistoricalPrices {
	return &mockHistoricalPrices{
		series:  make(map[string]*timeseries.Series),
		pending: make(map[string]*timeseries.Series),
	}
}

func (m *mockHistoricalPrices) GetHistoricalData(_ context.Context, assetID string, _, _ timeseries.Date) (*timeseries.Series, error) {
	if s, ok := m.series[assetID]; ok {
		return s, nil
	}
	return timeseries.NewSeries(), nil
}

func (m *mockHistoricalPrices) SyncHistoricalData(_ context.Context, assetID string, _, _ timeseries.Date) (int, error) {
	m.syncCalls = append(m.syncCalls, assetID)
	if s, ok := m.pending[assetID]; ok {
		m.series[assetID] = s
		return s.Len(), nil
	}
	return 0, nil
}

type mockQuoteReader struct {
	quotes map[string]decimal.Decimal
	err    error
}

func (m *mockQuoteReader) GetMany(_ context.Context, assetIDs []string) (map[string]decimal.Decimal, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]decimal.Decimal)
	for _, id := range assetIDs {
		if price, ok := m.quotes[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

type mockPerformanceWriter struct {
	replaced map[string][]models.PerformanceRecord
	errs     map[string]error
	calls    int
}

func newMockPerformanceWriter() *mockPerformanceWriter {
	return &mockPerformanceWriter{
		replaced: make(map[string][]models.PerformanceRecord),
		errs:     make(map[string]error),
	}
}

func (m *mockPerformanceWriter) ReplaceRange(_ context.Context, portfolioID string, _, _ timeseries.Date, records []models.PerformanceRecord) error {
	m.calls++
	if err, ok := m.errs[portfolioID]; ok {
		return err
	}
	m.replaced[portfolioID] = records
	return nil
}

type mockRankingWriter struct {
	replaced map[string][]models.RankingRecord
	err      error
	calls    int
}

func newMockRankingWriter() *mockRankingWriter {
	return &mockRankingWriter{replaced: make(map[string][]models.RankingRecord)}
}

func (m *mockRankingWriter) ReplaceForSession(_ context.Context, sessionID string, records []models.RankingRecord) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.replaced[sessionID] = records
	return nil
}

type serviceFixture struct {
	sessions     *mockSessionStore
	portfolios   *mockPortfolioStore
	transactions *mockTransactionStore
	prices       *mockHistoricalPrices
	quotes       *mockQuoteReader
	perfWriter   *mockPerformanceWriter
	rankWriter   *mockRankingWriter
	svc          *Service
}

func newServiceFixture(cfg Config) *serviceFixture {
	f := &serviceFixture{
		sessions:     newMockSessionStore(),
		portfolios:   newMockPortfolioStore(),
		transactions: newMockTransactionStore(),
		prices:       newMockHistoricalPrices(),
		quotes:       &mockQuoteReader{quotes: make(map[string]decimal.Decimal)},
		perfWriter:   newMockPerformanceWriter(),
		rankWriter:   newMockRankingWriter(),
	}
	f.svc = NewService(
		f.sessions, f.portfolios, f.transactions, f.prices, f.quotes,
		f.perfWriter, f.rankWriter, cfg,
		logging.New(logging.LevelError, logging.FormatText),
	)
	return f
}

func d(year int, month time.Month, day int) timeseries.Date {
	return timeseries.NewDate(year, month, day)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
