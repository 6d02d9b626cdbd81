package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/timeseries"
)

// PerformanceRecord is one portfolio's end-of-day standing against the
// benchmark: one row per portfolio per calendar day. Rows for a date range
// are fully replaced on each run, never patched in place.
type PerformanceRecord struct {
	ID                 string          `json:"id" db:"id"`
	PortfolioID        string          `json:"portfolioId" db:"portfolio_id"`
	Day                timeseries.Date `json:"day" db:"day"`
	PortfolioValue     decimal.Decimal `json:"portfolioValue" db:"portfolio_value"`
	BenchmarkValue     decimal.Decimal `json:"benchmarkValue" db:"benchmark_value"`
	PortfolioChangePct decimal.Decimal `json:"portfolioChangePct" db:"portfolio_change_pct"`
	BenchmarkChangePct decimal.Decimal `json:"benchmarkChangePct" db:"benchmark_change_pct"`
	Outperformance     decimal.Decimal `json:"outperformance" db:"outperformance"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
}
