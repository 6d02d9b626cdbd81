package performance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

var hundred = decimal.NewFromInt(100)

// assemblePerformanceRecords merges a portfolio's reconstructed daily values
// with the benchmark close series into persisted per-day records.
//
// The portfolio base is the first value > 0 in the daily series, falling
// back to startingCash when the whole series is zero. The benchmark base is
// its first positive close. Benchmark values carry forward over days without
// a fresh close; a day before the first close (or an entirely empty
// benchmark) contributes zero value and zero percent change.
func assemblePerformanceRecords(
	portfolioID string,
	daily []DailyValue,
	benchmark *timeseries.Series,
	startingCash decimal.Decimal,
	now time.Time,
) []models.PerformanceRecord {
	base := startingCash
	for _, dv := range daily {
		if dv.Total.IsPositive() {
			base = dv.Total
			break
		}
	}

	var benchBase decimal.Decimal
	if p, ok := benchmark.FirstPositive(); ok {
		benchBase = p.Value
	}

	records := make([]models.PerformanceRecord, 0, len(daily))
	for _, dv := range daily {
		benchValue, _ := benchmark.ValueAsOf(dv.Day)

		record := models.PerformanceRecord{
			ID:                 uuid.NewString(),
			PortfolioID:        portfolioID,
			Day:                dv.Day,
			PortfolioValue:     dv.Total,
			BenchmarkValue:     benchValue,
			PortfolioChangePct: percentChange(dv.Total, base),
			BenchmarkChangePct: percentChange(benchValue, benchBase),
			CreatedAt:          now,
		}
		record.Outperformance = record.PortfolioChangePct.Sub(record.BenchmarkChangePct)
		records = append(records, record)
	}
	return records
}

// percentChange is (value − base) / base × 100, or zero when base is not
// positive.
func percentChange(value, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return value.Sub(base).Div(base).Mul(hundred)
}
