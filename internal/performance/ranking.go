package performance

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/metrics"
	"github.com/portfolio-engine/internal/models"
)

// userAggregate accumulates one user's standing across every portfolio they
// own in a session.
type userAggregate struct {
	userID         string
	userName       string
	totalValue     decimal.Decimal
	portfolioCount int
}

// ComputeAndStoreSessionRankings rebuilds the session leaderboard from live
// data: current cash balances, current holdings, and the latest cached
// quotes. Totals aggregate by user, since one user may hold several
// portfolios in a session. The full row set for the session is replaced in
// one transaction.
func (s *Service) ComputeAndStoreSessionRankings(ctx context.Context, sessionID string) error {
	log := s.log.WithField("session_id", sessionID)

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		metrics.RankingRunsTotal.WithLabelValues("error").Inc()
		return err
	}
	portfolios, err := s.sessions.ListPortfolios(ctx, sessionID)
	if err != nil {
		metrics.RankingRunsTotal.WithLabelValues("error").Inc()
		return err
	}
	if len(portfolios) == 0 {
		log.Info("session has no portfolios, storing empty leaderboard")
	}

	holdingsByPortfolio := make(map[string][]models.Holding, len(portfolios))
	assetSet := make(map[string]struct{})
	for _, p := range portfolios {
		holdings, err := s.portfolios.ListHoldings(ctx, p.ID)
		if err != nil {
			log.WithError(err).WithField("portfolio_id", p.ID).Error("failed to load holdings, excluding portfolio from leaderboard")
			continue
		}
		holdingsByPortfolio[p.ID] = holdings
		for _, h := range holdings {
			assetSet[h.AssetID] = struct{}{}
		}
	}

	quotes := s.bulkQuotes(ctx, assetSet, log)

	aggregates := make(map[string]*userAggregate)
	for _, p := range portfolios {
		holdings, ok := holdingsByPortfolio[p.ID]
		if !ok {
			continue
		}
		total := p.CashBalance
		for _, h := range holdings {
			// Assets with no cached quote price as zero. Degenerate but
			// deliberate: the leaderboard stays live even when the quote
			// cache is cold.
			total = total.Add(h.Quantity.Mul(quotes[h.AssetID]))
		}

		agg, ok := aggregates[p.UserID]
		if !ok {
			agg = &userAggregate{userID: p.UserID, userName: p.OwnerName}
			aggregates[p.UserID] = agg
		}
		agg.totalValue = agg.totalValue.Add(total)
		agg.portfolioCount++
	}

	records := buildRankingRecords(session, aggregates, s.cfg.PerPortfolioBaseline, s.now())
	if err := s.rankWriter.ReplaceForSession(ctx, sessionID, records); err != nil {
		metrics.RankingRunsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.RankingRunsTotal.WithLabelValues("ok").Inc()
	log.WithField("users", len(records)).Info("session leaderboard rebuilt")
	return nil
}

// bulkQuotes fetches every distinct asset's latest cached quote in one read.
// A cache failure degrades all prices to zero rather than failing the run.
func (s *Service) bulkQuotes(ctx context.Context, assetSet map[string]struct{}, log *logging.Logger) map[string]decimal.Decimal {
	if len(assetSet) == 0 {
		return nil
	}
	assetIDs := make([]string, 0, len(assetSet))
	for assetID := range assetSet {
		assetIDs = append(assetIDs, assetID)
	}
	quotes, err := s.quotes.GetMany(ctx, assetIDs)
	if err != nil {
		log.WithError(err).Warn("quote cache read failed, holdings will value as zero")
		return nil
	}
	return quotes
}

// buildRankingRecords orders user aggregates into a dense, 1-based
// leaderboard: descending by return percent, ties broken by case-sensitive
// ascending name. Ranks are strictly increasing even for equal returns.
func buildRankingRecords(session *models.GameSession, aggregates map[string]*userAggregate, perPortfolioBaseline bool, now time.Time) []models.RankingRecord {
	users := make([]*userAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		users = append(users, agg)
	}

	type scored struct {
		*userAggregate
		returnPct decimal.Decimal
	}
	rows := make([]scored, 0, len(users))
	for _, u := range users {
		baseline := session.StartingCash
		if perPortfolioBaseline {
			baseline = baseline.Mul(decimal.NewFromInt(int64(u.portfolioCount)))
		}
		var returnPct decimal.Decimal
		if baseline.IsPositive() {
			returnPct = u.totalValue.Div(baseline).Sub(decimal.NewFromInt(1)).Mul(hundred)
		}
		rows = append(rows, scored{userAggregate: u, returnPct: returnPct})
	}

	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].returnPct.Cmp(rows[j].returnPct); c != 0 {
			return c > 0
		}
		return rows[i].userName < rows[j].userName
	})

	records := make([]models.RankingRecord, 0, len(rows))
	for i, row := range rows {
		records = append(records, models.RankingRecord{
			ID:             uuid.NewString(),
			SessionID:      session.ID,
			UserID:         row.userID,
			UserName:       row.userName,
			Rank:           i + 1,
			TotalValue:     row.totalValue,
			ReturnPct:      row.returnPct,
			PortfolioCount: row.portfolioCount,
			CreatedAt:      now,
		})
	}
	return records
}
