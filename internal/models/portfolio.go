package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is one user's simulated brokerage account within a session.
// CashBalance reflects current state only; historical cash is reconstructed
// by transaction replay, never read from here.
type Portfolio struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	SessionID   string          `json:"sessionId" db:"session_id"`
	CashBalance decimal.Decimal `json:"cashBalance" db:"cash_balance"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// PortfolioWithOwner joins a portfolio with its owning user, as loaded for
// session-wide runs.
type PortfolioWithOwner struct {
	Portfolio
	OwnerName string `json:"ownerName" db:"owner_name"`
}

// Holding is the live quantity of one asset currently held by a portfolio.
// Holdings are a current-state snapshot and are never reconstructed
// historically; only the ranking aggregation reads them.
type Holding struct {
	PortfolioID string          `json:"portfolioId" db:"portfolio_id"`
	AssetID     string          `json:"assetId" db:"asset_id"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
}
