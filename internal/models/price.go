package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/timeseries"
)

// HistoricalPricePoint is one asset's closing price for one trading day.
// The series is sparse: weekends, holidays and never-synced ranges have no
// rows, and readers carry the last known price forward.
type HistoricalPricePoint struct {
	AssetID string          `json:"assetId" db:"asset_id"`
	Day     timeseries.Date `json:"day" db:"day"`
	Close   decimal.Decimal `json:"close" db:"close"`
}

// LiveQuote is the most recent cached market price for an asset. Used only
// for the live ranking snapshot, never for historical reconstruction.
type LiveQuote struct {
	AssetID   string          `json:"assetId"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
