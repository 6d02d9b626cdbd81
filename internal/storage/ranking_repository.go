package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	apperrors "github.com/portfolio-engine/internal/errors"
	"github.com/portfolio-engine/internal/models"
)

// RankingRepository persists session leaderboards.
type RankingRepository struct {
	pool *pgxpool.Pool
}

// NewRankingRepository creates a new ranking repository.
func NewRankingRepository(pool *pgxpool.Pool) *RankingRepository {
	return &RankingRepository{pool: pool}
}

// ReplaceForSession atomically replaces a session's leaderboard with the
// given ranked set. A partial write would corrupt the leaderboard, so the
// delete and insert share one transaction and any failure propagates.
func (r *RankingRepository) ReplaceForSession(ctx context.Context, sessionID string, records []models.RankingRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewPersistence("begin ranking replace", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM ranking_records WHERE session_id = $1`, sessionID); err != nil {
		return apperrors.NewPersistence("delete session rankings", err)
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(
			`INSERT INTO ranking_records (
				id, session_id, user_id, user_name, rank,
				total_value, return_pct, portfolio_count, created_at
			) VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8, $9)`,
			rec.ID, rec.SessionID, rec.UserID, rec.UserName, rec.Rank,
			rec.TotalValue.String(), rec.ReturnPct.String(), rec.PortfolioCount, rec.CreatedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return apperrors.NewPersistence("insert ranking rows", err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewPersistence("insert ranking rows", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewPersistence("commit ranking replace", err)
	}
	return nil
}

// ListForSession returns a session's persisted leaderboard in rank order.
func (r *RankingRepository) ListForSession(ctx context.Context, sessionID string) ([]models.RankingRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, user_id, user_name, rank,
		        total_value::TEXT, return_pct::TEXT, portfolio_count, created_at
		 FROM ranking_records
		 WHERE session_id = $1
		 ORDER BY rank`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var records []models.RankingRecord
	for rows.Next() {
		var (
			rec        models.RankingRecord
			totalValue string
			returnPct  string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.UserID, &rec.UserName, &rec.Rank,
			&totalValue, &returnPct, &rec.PortfolioCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		if rec.TotalValue, err = decimal.NewFromString(totalValue); err != nil {
			return nil, fmt.Errorf("failed to parse ranking total value: %w", err)
		}
		if rec.ReturnPct, err = decimal.NewFromString(returnPct); err != nil {
			return nil, fmt.Errorf("failed to parse ranking return pct: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
