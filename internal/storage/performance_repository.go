package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	apperrors "github.com/portfolio-engine/internal/errors"
	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

// PerformanceRepository persists the per-day performance rows produced by a
// reconstruction run.
type PerformanceRepository struct {
	pool *pgxpool.Pool
}

// NewPerformanceRepository creates a new performance repository.
func NewPerformanceRepository(pool *pgxpool.Pool) *PerformanceRepository {
	return &PerformanceRepository{pool: pool}
}

// ReplaceRange atomically replaces a portfolio's performance rows for
// [start, end] with the given set. Delete and insert run in one database
// transaction so no reader ever observes a half-deleted range, and
// re-running with unchanged inputs yields identical rows.
func (r *PerformanceRepository) ReplaceRange(ctx context.Context, portfolioID string, start, end timeseries.Date, records []models.PerformanceRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewPersistence("begin performance replace", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM performance_records
		 WHERE portfolio_id = $1 AND day >= $2 AND day <= $3`,
		portfolioID, start.Time(), end.Time())
	if err != nil {
		return apperrors.NewPersistence("delete performance range", err)
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(
			`INSERT INTO performance_records (
				id, portfolio_id, day,
				portfolio_value, benchmark_value,
				portfolio_change_pct, benchmark_change_pct, outperformance,
				created_at
			) VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9)`,
			rec.ID, rec.PortfolioID, rec.Day.Time(),
			rec.PortfolioValue.String(), rec.BenchmarkValue.String(),
			rec.PortfolioChangePct.String(), rec.BenchmarkChangePct.String(), rec.Outperformance.String(),
			rec.CreatedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return apperrors.NewPersistence("insert performance rows", err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewPersistence("insert performance rows", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewPersistence("commit performance replace", err)
	}
	return nil
}

// GetRange returns a portfolio's persisted performance rows for [start, end],
// ascending by day.
func (r *PerformanceRepository) GetRange(ctx context.Context, portfolioID string, start, end timeseries.Date) ([]models.PerformanceRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, portfolio_id, day,
		        portfolio_value::TEXT, benchmark_value::TEXT,
		        portfolio_change_pct::TEXT, benchmark_change_pct::TEXT, outperformance::TEXT,
		        created_at
		 FROM performance_records
		 WHERE portfolio_id = $1 AND day >= $2 AND day <= $3
		 ORDER BY day`, portfolioID, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to query performance records for portfolio %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var records []models.PerformanceRecord
	for rows.Next() {
		var (
			rec                                    models.PerformanceRecord
			day                                    time.Time
			pv, bv, pPct, bPct, outperf            string
		)
		if err := rows.Scan(&rec.ID, &rec.PortfolioID, &day, &pv, &bv, &pPct, &bPct, &outperf, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan performance row: %w", err)
		}
		rec.Day = timeseries.DateOf(day)
		if rec.PortfolioValue, err = decimal.NewFromString(pv); err != nil {
			return nil, fmt.Errorf("failed to parse portfolio value: %w", err)
		}
		if rec.BenchmarkValue, err = decimal.NewFromString(bv); err != nil {
			return nil, fmt.Errorf("failed to parse benchmark value: %w", err)
		}
		if rec.PortfolioChangePct, err = decimal.NewFromString(pPct); err != nil {
			return nil, fmt.Errorf("failed to parse portfolio change pct: %w", err)
		}
		if rec.BenchmarkChangePct, err = decimal.NewFromString(bPct); err != nil {
			return nil, fmt.Errorf("failed to parse benchmark change pct: %w", err)
		}
		if rec.Outperformance, err = decimal.NewFromString(outperf); err != nil {
			return nil, fmt.Errorf("failed to parse outperformance: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
