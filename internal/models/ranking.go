package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RankingRecord is one user's row on a session leaderboard. Rank positions
// are dense and strictly increasing from 1; ties on return percent are
// ordered by case-sensitive ascending user name. The whole set for a session
// is replaced on each run.
type RankingRecord struct {
	ID             string          `json:"id" db:"id"`
	SessionID      string          `json:"sessionId" db:"session_id"`
	UserID         string          `json:"userId" db:"user_id"`
	UserName       string          `json:"userName" db:"user_name"`
	Rank           int             `json:"rank" db:"rank"`
	TotalValue     decimal.Decimal `json:"totalValue" db:"total_value"`
	ReturnPct      decimal.Decimal `json:"returnPct" db:"return_pct"`
	PortfolioCount int             `json:"portfolioCount" db:"portfolio_count"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}
