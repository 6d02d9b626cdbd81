package models

import (
	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/timeseries"
)

// TransactionType distinguishes buys from sells.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Transaction is an immutable buy/sell record. Rows are append-only: the
// engine never mutates or deletes them, only replays them in date order.
type Transaction struct {
	ID          string          `json:"id" db:"id"`
	PortfolioID string          `json:"portfolioId" db:"portfolio_id"`
	AssetID     string          `json:"assetId" db:"asset_id"`
	Type        TransactionType `json:"type" db:"type"`
	Date        timeseries.Date `json:"date" db:"date"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	Total       decimal.Decimal `json:"total" db:"total"` // total consideration
}

// ImpliedUnitPrice derives a per-share price from the trade itself,
// total / quantity. Serves as a fallback price source for days where market
// data was never synced. Returns false for zero-quantity rows.
func (t *Transaction) ImpliedUnitPrice() (decimal.Decimal, bool) {
	if t.Quantity.IsZero() {
		return decimal.Decimal{}, false
	}
	return t.Total.Div(t.Quantity), true
}

// CashDelta is the transaction's effect on cash: sells add the total,
// buys subtract it.
func (t *Transaction) CashDelta() decimal.Decimal {
	if t.Type == TransactionSell {
		return t.Total
	}
	return t.Total.Neg()
}

// QuantityDelta is the transaction's effect on the held quantity.
func (t *Transaction) QuantityDelta() decimal.Decimal {
	if t.Type == TransactionSell {
		return t.Quantity.Neg()
	}
	return t.Quantity
}
