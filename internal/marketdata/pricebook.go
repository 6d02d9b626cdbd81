package marketdata

import (
	"context"
	"sync"

	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/timeseries"
)

// HistoricalReader serves locally stored close series.
type HistoricalReader interface {
	GetHistoricalData(ctx context.Context, assetID string, start, end timeseries.Date) (*timeseries.Series, error)
}

// PriceBook is a per-run snapshot of close series for a fixed set of assets.
// Prefetch loads every asset once up front so reconstruction loops never
// touch the database; an asset whose load failed simply has an empty series,
// and the failure does not abort the run.
type PriceBook struct {
	reader HistoricalReader
	log    *logging.Logger

	mu     sync.Mutex
	series map[string]*timeseries.Series
	failed map[string]error
}

func NewPriceBook(reader HistoricalReader, log *logging.Logger) *PriceBook {
	return &PriceBook{
		reader: reader,
		log:    log.WithField("component", "price_book"),
		series: make(map[string]*timeseries.Series),
		failed: make(map[string]error),
	}
}

// Prefetch loads close series for every asset in assetIDs over [start, end],
// fanning out one goroutine per asset and joining before returning. Assets
// already loaded are skipped. Per-asset failures are recorded and logged but
// never returned: callers proceed with whatever loaded.
func (b *PriceBook) Prefetch(ctx context.Context, assetIDs []string, start, end timeseries.Date) {
	var wg sync.WaitGroup
	for _, assetID := range assetIDs {
		b.mu.Lock()
		_, have := b.series[assetID]
		b.mu.Unlock()
		if have {
			continue
		}

		wg.Add(1)
		go func(assetID string) {
			defer wg.Done()
			series, err := b.reader.GetHistoricalData(ctx, assetID, start, end)
			b.mu.Lock()
			defer b.mu.Unlock()
			if err != nil {
				b.failed[assetID] = err
				b.series[assetID] = timeseries.NewSeries()
				b.log.WithError(err).WithField("asset_id", assetID).Error("failed to load price series, asset will value as zero")
				return
			}
			b.series[assetID] = series
		}(assetID)
	}
	wg.Wait()
}

// Refresh discards whatever is cached for the given assets and loads them
// again, typically after a backfill sync filled a gap.
func (b *PriceBook) Refresh(ctx context.Context, assetIDs []string, start, end timeseries.Date) {
	b.mu.Lock()
	for _, assetID := range assetIDs {
		delete(b.series, assetID)
		delete(b.failed, assetID)
	}
	b.mu.Unlock()
	b.Prefetch(ctx, assetIDs, start, end)
}

// Series returns the prefetched close series for assetID. Assets never
// prefetched (or whose prefetch failed) return an empty series.
func (b *PriceBook) Series(assetID string) *timeseries.Series {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.series[assetID]; ok {
		return s
	}
	return timeseries.NewSeries()
}

// Failed reports the per-asset load errors recorded during Prefetch.
func (b *PriceBook) Failed() map[string]error {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]error, len(b.failed))
	for k, v := range b.failed {
		out[k] = v
	}
	return out
}
