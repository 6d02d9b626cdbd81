// Package performance implements the batch computation at the heart of the
// engine: daily portfolio value reconstruction, benchmark-relative
// performance record assembly, and session leaderboard aggregation.
package performance

import (
	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/metrics"
	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

// DailyValue is one portfolio's end-of-day total (cash + holdings) for one
// calendar day.
type DailyValue struct {
	Day   timeseries.Date
	Total decimal.Decimal
}

// PriceSource serves prefetched close series by asset id. An asset with no
// data returns an empty series, never nil.
type PriceSource interface {
	Series(assetID string) *timeseries.Series
}

// reconstructDailyValues replays transactions against historical prices to
// produce one total-value entry per calendar day in [start, end] inclusive.
// It is a pure function of its inputs: transactions must be sorted ascending
// by date and include everything dated on or before end.
//
// startingCash is the session's per-portfolio allocation, not the
// portfolio's live cash balance. Transactions are consumed exactly once by a
// monotonic pointer, so rows dated before the window fold into the first
// day's opening state.
func reconstructDailyValues(
	txs []models.Transaction,
	prices PriceSource,
	startingCash decimal.Decimal,
	start, end timeseries.Date,
	log *logging.Logger,
) []DailyValue {
	implied := impliedPriceSeries(txs)

	cash := startingCash
	quantities := make(map[string]decimal.Decimal)
	priceless := make(map[string]bool)

	days := timeseries.Range(start, end)
	out := make([]DailyValue, 0, len(days))

	ptr := 0
	for _, day := range days {
		for ptr < len(txs) && !txs[ptr].Date.After(day) {
			tx := txs[ptr]
			cash = cash.Add(tx.CashDelta())
			quantities[tx.AssetID] = quantities[tx.AssetID].Add(tx.QuantityDelta())
			ptr++
		}

		holdings := decimal.Zero
		for assetID, qty := range quantities {
			if qty.IsZero() {
				continue
			}
			price, ok := resolvePrice(prices.Series(assetID), implied[assetID], day)
			if !ok {
				if !priceless[assetID] {
					priceless[assetID] = true
					metrics.PricelessAssetsTotal.Inc()
					log.WithField("asset_id", assetID).Warn("no market or transaction-implied price for asset, valuing as zero")
				}
				continue
			}
			holdings = holdings.Add(qty.Mul(price))
		}

		out = append(out, DailyValue{Day: day, Total: cash.Add(holdings)})
	}
	return out
}

// resolvePrice picks the price for an asset on a given day: last known
// market close at or before the day, then last transaction-implied price at
// or before the day, then the earliest implied price on record. Returns
// false only when the asset has never had a derivable price.
func resolvePrice(market, implied *timeseries.Series, day timeseries.Date) (decimal.Decimal, bool) {
	if v, ok := market.ValueAsOf(day); ok {
		return v, true
	}
	if implied == nil {
		return decimal.Decimal{}, false
	}
	if v, ok := implied.ValueAsOf(day); ok {
		return v, true
	}
	if p, ok := implied.First(); ok {
		return p.Value, true
	}
	return decimal.Decimal{}, false
}

// impliedPriceSeries derives a per-asset price series from trade totals
// (total / quantity). Same-day trades overwrite earlier ones: only the last
// implied price of the day survives, which is adequate for an end-of-day
// fallback.
func impliedPriceSeries(txs []models.Transaction) map[string]*timeseries.Series {
	out := make(map[string]*timeseries.Series)
	for i := range txs {
		price, ok := txs[i].ImpliedUnitPrice()
		if !ok {
			continue
		}
		s, have := out[txs[i].AssetID]
		if !have {
			s = timeseries.NewSeries()
			out[txs[i].AssetID] = s
		}
		s.Append(txs[i].Date, price)
	}
	return out
}
