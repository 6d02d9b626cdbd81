package performance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/portfolio-engine/internal/errors"
	"github.com/portfolio-engine/internal/models"
)

func portfolio(id, userID, owner, cash string) models.PortfolioWithOwner {
	return models.PortfolioWithOwner{
		Portfolio: models.Portfolio{ID: id, UserID: userID, SessionID: "s1", CashBalance: dec(cash)},
		OwnerName: owner,
	}
}

// startingCash 100000 and a live total of 89400 must yield exactly −10.6.
func TestRankingReturnPercent(t *testing.T) {
	f := newServiceFixture(Config{PerPortfolioBaseline: true})
	session := seedSession(f)
	session.StartingCash = dec("100000")
	fixSessionClock(f, d(2024, 3, 2))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{portfolio("p1", "u1", "alice", "14400")}
	f.portfolios.holdings["p1"] = []models.Holding{{PortfolioID: "p1", AssetID: "X", Quantity: dec("500")}}
	f.quotes.quotes["X"] = dec("150")

	require.NoError(t, f.svc.ComputeAndStoreSessionRankings(context.Background(), "s1"))

	records := f.rankWriter.replaced["s1"]
	require.Len(t, records, 1)
	assert.True(t, records[0].TotalValue.Equal(dec("89400")), "got %s", records[0].TotalValue)
	assert.True(t, records[0].ReturnPct.Equal(dec("-10.6")), "got %s", records[0].ReturnPct)
	assert.Equal(t, 1, records[0].Rank)
}

// Equal returns order by case-sensitive ascending name, and ranks stay
// strictly increasing with no ties.
func TestRankingTieBreakAndDenseRanks(t *testing.T) {
	f := newServiceFixture(Config{PerPortfolioBaseline: true})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 2))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		portfolio("p1", "u1", "carol", "10000"),
		portfolio("p2", "u2", "Bob", "10000"),
		portfolio("p3", "u3", "alice", "12000"),
	}

	require.NoError(t, f.svc.ComputeAndStoreSessionRankings(context.Background(), "s1"))

	records := f.rankWriter.replaced["s1"]
	require.Len(t, records, 3)
	assert.Equal(t, "alice", records[0].UserName)
	// Uppercase sorts before lowercase in a case-sensitive comparison.
	assert.Equal(t, "Bob", records[1].UserName)
	assert.Equal(t, "carol", records[2].UserName)
	for i, r := range records {
		assert.Equal(t, i+1, r.Rank)
	}
}

// A user's portfolios aggregate into one row; the baseline scales with
// portfolio count when the per-portfolio policy is on.
func TestRankingAggregatesByUser(t *testing.T) {
	f := newServiceFixture(Config{PerPortfolioBaseline: true})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 2))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		portfolio("p1", "u1", "alice", "11000"),
		portfolio("p2", "u1", "alice", "11000"),
		portfolio("p3", "u2", "bob", "10500"),
	}

	require.NoError(t, f.svc.ComputeAndStoreSessionRankings(context.Background(), "s1"))

	records := f.rankWriter.replaced["s1"]
	require.Len(t, records, 2)

	// alice: 22000 against a 20000 baseline = +10%, beating bob's +5%.
	assert.Equal(t, "alice", records[0].UserName)
	assert.Equal(t, 2, records[0].PortfolioCount)
	assert.True(t, records[0].TotalValue.Equal(dec("22000")))
	assert.True(t, records[0].ReturnPct.Equal(dec("10")), "got %s", records[0].ReturnPct)
	assert.True(t, records[1].ReturnPct.Equal(dec("5")), "got %s", records[1].ReturnPct)
}

// With the single-baseline policy, a multi-portfolio user's return is
// measured against one un-multiplied allocation.
func TestRankingSingleBaselinePolicy(t *testing.T) {
	f := newServiceFixture(Config{PerPortfolioBaseline: false})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 2))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		portfolio("p1", "u1", "alice", "11000"),
		portfolio("p2", "u1", "alice", "11000"),
	}

	require.NoError(t, f.svc.ComputeAndStoreSessionRankings(context.Background(), "s1"))

	records := f.rankWriter.replaced["s1"]
	require.Len(t, records, 1)
	// 22000 against 10000: +120%.
	assert.True(t, records[0].ReturnPct.Equal(dec("120")), "got %s", records[0].ReturnPct)
}

func TestRankingEmptySession(t *testing.T) {
	f := newServiceFixture(Config{PerPortfolioBaseline: true})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 2))

	require.NoError(t, f.svc.ComputeAndStoreSessionRankings(context.Background(), "s1"))
	require.Equal(t, 1, f.rankWriter.calls, "an empty leaderboard still replaces the old rows")
	assert.Empty(t, f.rankWriter.replaced["s1"])
}

func TestRankingUnknownSession(t *testing.T) {
	f := newServiceFixture(Config{})
	err := f.svc.ComputeAndStoreSessionRankings(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Zero(t, f.rankWriter.calls)
}

// Holdings with no cached quote price as zero without failing the run.
func TestRankingMissingQuotesValueAsZero(t *testing.T) {
	f := newServiceFixture(Config{PerPortfolioBaseline: true})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 2))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{portfolio("p1", "u1", "alice", "4000")}
	f.portfolios.holdings["p1"] = []models.Holding{{PortfolioID: "p1", AssetID: "UNQUOTED", Quantity: dec("10")}}

	require.NoError(t, f.svc.ComputeAndStoreSessionRankings(context.Background(), "s1"))

	records := f.rankWriter.replaced["s1"]
	require.Len(t, records, 1)
	assert.True(t, records[0].TotalValue.Equal(dec("4000")), "got %s", records[0].TotalValue)
}

// A broken holdings load excludes that portfolio but keeps the rest of the
// leaderboard; a ranking persistence failure propagates.
func TestRankingFailureSemantics(t *testing.T) {
	f := newServiceFixture(Config{PerPortfolioBaseline: true})
	seedSession(f)
	fixSessionClock(f, d(2024, 3, 2))

	f.sessions.portfolios["s1"] = []models.PortfolioWithOwner{
		portfolio("p1", "u1", "alice", "10000"),
		portfolio("p2", "u2", "bob", "10000"),
	}
	f.portfolios.errs["p1"] = errors.New("query timeout")

	require.NoError(t, f.svc.ComputeAndStoreSessionRankings(context.Background(), "s1"))
	records := f.rankWriter.replaced["s1"]
	require.Len(t, records, 1)
	assert.Equal(t, "bob", records[0].UserName)

	f.rankWriter.err = apperrors.NewPersistence("replace session rankings", errors.New("connection reset"))
	err := f.svc.ComputeAndStoreSessionRankings(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryPersistence, apperrors.CategoryOf(err))
}
