package performance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/portfolio-engine/internal/errors"
	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

func fixSessionClock(f *serviceFixture, today timeseries.Date) {
	now := today.Time().Add(6 * time.Hour)
	f.svc.now = func() time.Time { return now }
	f.svc.today = func() timeseries.Date { return today }
}

func seedSession(f *serviceFixture) *models.GameSession {
	session := &models.GameSession{
		ID:           "s1",
		Name:         "Spring League",
		StartDate:    d(2024, 3, 1),
		EndDate:      d(2024, 3, 31),
		StartingCash: dec("10000"),
		Active:       true,
	}
	f.sessions.sessions["s1"] = session
	return session
}

func TestComputeSessionPerformance(t *testing.T) {
	f := newServiceFixture(Config{BenchmarkAssetID: "^GSPC", PerPortfolioBaseline: true})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 3))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		{Portfolio: models.Portfolio{ID: "p1", UserID: "u1", SessionID: "s1"}, OwnerName: "alice"},
	}
	f.transactions.txs["p1"] = []models.Transaction{buy("p1", "X", d(2024, 3, 1), "10", "1000")}

	x := timeseries.NewSeries()
	x.Append(d(2024, 3, 1), dec("100"))
	x.Append(d(2024, 3, 2), dec("110"))
	f.prices.series["X"] = x

	bench := timeseries.NewSeries()
	bench.Append(d(2024, 3, 1), dec("5000"))
	f.prices.series["^GSPC"] = bench

	require.NoError(t, f.svc.ComputeSessionPerformance(context.Background(), "s1"))

	records := f.perfWriter.replaced["p1"]
	require.Len(t, records, 3, "one row per calendar day from start through today")
	assert.True(t, records[1].PortfolioValue.Equal(dec("10100")), "got %s", records[1].PortfolioValue)
	assert.True(t, records[1].PortfolioChangePct.Equal(dec("1")), "got %s", records[1].PortfolioChangePct)
}

// Re-running with unchanged upstream data replaces the rows with an
// identical set (row ids aside, which are regenerated on every insert).
func TestComputeSessionPerformanceIdempotent(t *testing.T) {
	f := newServiceFixture(Config{BenchmarkAssetID: "^GSPC"})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 5))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		{Portfolio: models.Portfolio{ID: "p1", UserID: "u1", SessionID: "s1"}, OwnerName: "alice"},
	}
	f.transactions.txs["p1"] = []models.Transaction{
		buy("p1", "X", d(2024, 3, 1), "10", "1000"),
		sell("p1", "X", d(2024, 3, 3), "5", "560"),
	}
	x := timeseries.NewSeries()
	x.Append(d(2024, 3, 1), dec("100"))
	x.Append(d(2024, 3, 4), dec("108"))
	f.prices.series["X"] = x

	require.NoError(t, f.svc.ComputeSessionPerformance(context.Background(), "s1"))
	first := f.perfWriter.replaced["p1"]
	require.NoError(t, f.svc.ComputeSessionPerformance(context.Background(), "s1"))
	second := f.perfWriter.replaced["p1"]

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Day, second[i].Day)
		assert.True(t, first[i].PortfolioValue.Equal(second[i].PortfolioValue))
		assert.True(t, first[i].BenchmarkValue.Equal(second[i].BenchmarkValue))
		assert.True(t, first[i].PortfolioChangePct.Equal(second[i].PortfolioChangePct))
		assert.True(t, first[i].Outperformance.Equal(second[i].Outperformance))
	}
}

func TestComputeSessionPerformanceUnknownSession(t *testing.T) {
	f := newServiceFixture(Config{})
	err := f.svc.ComputeSessionPerformance(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Zero(t, f.perfWriter.calls)
}

// One portfolio's persistence failure must not abort its siblings.
func TestComputeSessionPerformanceIsolatesPortfolioFailures(t *testing.T) {
	f := newServiceFixture(Config{})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 2))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		{Portfolio: models.Portfolio{ID: "p1", UserID: "u1", SessionID: "s1"}, OwnerName: "alice"},
		{Portfolio: models.Portfolio{ID: "p2", UserID: "u2", SessionID: "s1"}, OwnerName: "bob"},
	}
	f.perfWriter.errs["p1"] = apperrors.NewPersistence("replace performance range", errors.New("connection reset"))

	require.NoError(t, f.svc.ComputeSessionPerformance(context.Background(), "s1"))
	assert.NotContains(t, f.perfWriter.replaced, "p1")
	assert.Contains(t, f.perfWriter.replaced, "p2")
}

// A broken transaction load skips that portfolio but still processes the
// rest of the session.
func TestComputeSessionPerformanceIsolatesLoadFailures(t *testing.T) {
	f := newServiceFixture(Config{})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 2))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		{Portfolio: models.Portfolio{ID: "p1", UserID: "u1", SessionID: "s1"}, OwnerName: "alice"},
		{Portfolio: models.Portfolio{ID: "p2", UserID: "u2", SessionID: "s1"}, OwnerName: "bob"},
	}
	f.transactions.errs["p1"] = errors.New("query timeout")

	require.NoError(t, f.svc.ComputeSessionPerformance(context.Background(), "s1"))
	assert.NotContains(t, f.perfWriter.replaced, "p1")
	assert.Contains(t, f.perfWriter.replaced, "p2")
}

// The window clamps at the session end date once it has passed.
func TestComputeSessionPerformanceClampsToSessionEnd(t *testing.T) {
	f := newServiceFixture(Config{})
	session := seedSession(f)
	session.EndDate = d(2024, 3, 3)
	fixSessionClock(f, d(2024, 6, 1))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		{Portfolio: models.Portfolio{ID: "p1", UserID: "u1", SessionID: "s1"}, OwnerName: "alice"},
	}

	require.NoError(t, f.svc.ComputeSessionPerformance(context.Background(), "s1"))
	assert.Len(t, f.perfWriter.replaced["p1"], 3)
}

// Assets with no local price data get one backfill attempt, and the synced
// series is used in the same run.
func TestComputeSessionPerformanceBackfillsMissingPrices(t *testing.T) {
	f := newServiceFixture(Config{})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 2))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		{Portfolio: models.Portfolio{ID: "p1", UserID: "u1", SessionID: "s1"}, OwnerName: "alice"},
	}
	f.transactions.txs["p1"] = []models.Transaction{buy("p1", "X", d(2024, 3, 1), "2", "100")}

	x := timeseries.NewSeries()
	x.Append(d(2024, 3, 2), dec("60"))
	f.prices.pending["X"] = x

	require.NoError(t, f.svc.ComputeSessionPerformance(context.Background(), "s1"))
	assert.Contains(t, f.prices.syncCalls, "X")

	records := f.perfWriter.replaced["p1"]
	require.Len(t, records, 2)
	// Day 2: 9900 cash + 2 × synced close 60.
	assert.True(t, records[1].PortfolioValue.Equal(dec("10020")), "got %s", records[1].PortfolioValue)
}

func TestComputeAllActiveSessionsPerformance(t *testing.T) {
	f := newServiceFixture(Config{})
	seedSession(f)
	f.sessions.sessions["s2"] = &models.GameSession{
		ID: "s2", Name: "Dormant", StartDate: d(2024, 1, 1), EndDate: d(2024, 1, 31),
		StartingCash: dec("10000"), Active: false,
	}
	fixSessionClock(f, d(2024, 3, 2))

	require.NoError(t, f.svc.ComputeAllActiveSessionsPerformance(context.Background()))
	assert.Equal(t, 1, f.rankWriter.calls, "only the active session is swept")
	assert.Contains(t, f.rankWriter.replaced, "s1")
	assert.NotContains(t, f.rankWriter.replaced, "s2")
}
