package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

// PriceRepository stores per-asset daily closing prices. The table is
// sparse by nature; readers carry the last known close forward.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetRange returns whatever closes are known for an asset within [start, end],
// as a carry-forward series. An empty series is not an error.
func (r *PriceRepository) GetRange(ctx context.Context, assetID string, start, end timeseries.Date) (*timeseries.Series, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT day, close::TEXT
		 FROM historical_prices
		 WHERE asset_id = $1 AND day >= $2 AND day <= $3
		 ORDER BY day`, assetID, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for asset %s: %w", assetID, err)
	}
	defer rows.Close()

	series := &timeseries.Series{}
	for rows.Next() {
		var (
			day      time.Time
			closeStr string
		)
		if err := rows.Scan(&day, &closeStr); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		closePrice, err := decimal.NewFromString(closeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse close price for asset %s: %w", assetID, err)
		}
		series.Append(timeseries.DateOf(day), closePrice)
	}
	return series, rows.Err()
}

// BulkUpsert writes backfilled price points, replacing any existing close
// for the same asset and day. Sync runs overlap, so upsert keeps the write
// idempotent.
func (r *PriceRepository) BulkUpsert(ctx context.Context, points []models.HistoricalPricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(
			`INSERT INTO historical_prices (asset_id, day, close)
			 VALUES ($1, $2, $3::NUMERIC)
			 ON CONFLICT (asset_id, day) DO UPDATE SET close = EXCLUDED.close`,
			p.AssetID, p.Day.Time(), p.Close.String(),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert price point: %w", err)
		}
	}
	return nil
}
