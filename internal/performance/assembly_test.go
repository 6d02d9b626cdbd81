package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-engine/internal/timeseries"
)

func TestAssemblePerformanceRecords(t *testing.T) {
	daily := []DailyValue{
		{Day: d(2024, 3, 1), Total: dec("10000")},
		{Day: d(2024, 3, 2), Total: dec("10100")},
		{Day: d(2024, 3, 3), Total: dec("9900")},
	}
	bench := timeseries.NewSeries()
	bench.Append(d(2024, 3, 1), dec("5000"))
	bench.Append(d(2024, 3, 3), dec("5100"))

	now := time.Date(2024, 3, 4, 1, 0, 0, 0, time.UTC)
	records := assemblePerformanceRecords("p1", daily, bench, dec("10000"), now)
	require.Len(t, records, 3)

	assert.True(t, records[0].PortfolioChangePct.IsZero())
	assert.True(t, records[1].PortfolioChangePct.Equal(dec("1")), "got %s", records[1].PortfolioChangePct)
	assert.True(t, records[2].PortfolioChangePct.Equal(dec("-1")), "got %s", records[2].PortfolioChangePct)

	// Day 2 has no fresh benchmark close: carries forward day 1's.
	assert.True(t, records[1].BenchmarkValue.Equal(dec("5000")))
	assert.True(t, records[1].BenchmarkChangePct.IsZero())
	assert.True(t, records[2].BenchmarkChangePct.Equal(dec("2")), "got %s", records[2].BenchmarkChangePct)

	assert.True(t, records[1].Outperformance.Equal(dec("1")))
	assert.True(t, records[2].Outperformance.Equal(dec("-3")), "got %s", records[2].Outperformance)

	for _, r := range records {
		assert.Equal(t, "p1", r.PortfolioID)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, now, r.CreatedAt)
	}
}

// A portfolio whose series starts at zero bases percent change on the first
// positive value, not the zero.
func TestAssembleBaseSkipsLeadingZeros(t *testing.T) {
	daily := []DailyValue{
		{Day: d(2024, 3, 1), Total: dec("0")},
		{Day: d(2024, 3, 2), Total: dec("200")},
		{Day: d(2024, 3, 3), Total: dec("300")},
	}
	records := assemblePerformanceRecords("p1", daily, timeseries.NewSeries(), dec("10000"), time.Now())
	require.Len(t, records, 3)

	assert.True(t, records[1].PortfolioChangePct.IsZero(), "first positive value is the base")
	assert.True(t, records[2].PortfolioChangePct.Equal(dec("50")), "got %s", records[2].PortfolioChangePct)
}

// An all-zero series falls back to starting cash as the base: every day
// reads −100%.
func TestAssembleAllZeroSeriesUsesStartingCashBase(t *testing.T) {
	daily := []DailyValue{
		{Day: d(2024, 3, 1), Total: dec("0")},
		{Day: d(2024, 3, 2), Total: dec("0")},
	}
	records := assemblePerformanceRecords("p1", daily, timeseries.NewSeries(), dec("10000"), time.Now())
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.PortfolioChangePct.Equal(dec("-100")), "got %s", r.PortfolioChangePct)
		assert.True(t, r.BenchmarkChangePct.IsZero())
	}
}
