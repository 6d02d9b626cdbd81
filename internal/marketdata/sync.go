package marketdata

import (
	"context"

	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/metrics"
	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

// PriceStore is the subset of the price repository the sync service needs.
type PriceStore interface {
	GetRange(ctx context.Context, assetID string, start, end timeseries.Date) (*timeseries.Series, error)
	BulkUpsert(ctx context.Context, points []models.HistoricalPricePoint) error
}

// Fetcher retrieves daily closes from the upstream provider.
type Fetcher interface {
	DailyCloses(ctx context.Context, symbol string, start, end timeseries.Date) (*timeseries.Series, error)
}

// SyncService keeps the local historical_prices table current with the
// upstream provider, and serves reads for computation runs.
type SyncService struct {
	fetcher Fetcher
	store   PriceStore
	log     *logging.Logger
}

func NewSyncService(fetcher Fetcher, store PriceStore, log *logging.Logger) *SyncService {
	return &SyncService{
		fetcher: fetcher,
		store:   store,
		log:     log.WithField("component", "price_sync"),
	}
}

// SyncHistoricalData fetches upstream closes for assetID over [start, end]
// and upserts them locally. Returns the number of price points written.
func (s *SyncService) SyncHistoricalData(ctx context.Context, assetID string, start, end timeseries.Date) (int, error) {
	series, err := s.fetcher.DailyCloses(ctx, assetID, start, end)
	if err != nil {
		metrics.SyncFailuresTotal.Inc()
		return 0, err
	}

	points := make([]models.HistoricalPricePoint, 0, series.Len())
	for _, p := range series.Points() {
		points = append(points, models.HistoricalPricePoint{
			AssetID: assetID,
			Day:     p.Day,
			Close:   p.Value,
		})
	}
	if len(points) == 0 {
		s.log.WithField("asset_id", assetID).Warn("upstream returned no prices for range")
		return 0, nil
	}
	if err := s.store.BulkUpsert(ctx, points); err != nil {
		metrics.SyncFailuresTotal.Inc()
		return 0, err
	}

	s.log.WithFields(map[string]any{
		"asset_id": assetID,
		"points":   len(points),
		"from":     start.String(),
		"to":       end.String(),
	}).Info("synced historical prices")
	return len(points), nil
}

// GetHistoricalData reads the locally stored close series for assetID over
// [start, end]. It never reaches upstream: computation runs work entirely
// from local data so a provider outage degrades freshness, not correctness.
func (s *SyncService) GetHistoricalData(ctx context.Context, assetID string, start, end timeseries.Date) (*timeseries.Series, error) {
	return s.store.GetRange(ctx, assetID, start, end)
}
