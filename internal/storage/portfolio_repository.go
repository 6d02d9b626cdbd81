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

// PortfolioRepository handles portfolio and holding reads.
type PortfolioRepository struct {
	pool *pgxpool.Pool
}

// NewPortfolioRepository creates a new portfolio repository.
func NewPortfolioRepository(pool *pgxpool.Pool) *PortfolioRepository {
	return &PortfolioRepository{pool: pool}
}

// GetByID retrieves a portfolio, returning NotFound when it does not exist.
// Reconstruction cannot proceed without a portfolio, so this is the one
// hard failure of that path.
func (r *PortfolioRepository) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	var (
		p           models.Portfolio
		cashBalance string
	)

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, session_id, cash_balance::TEXT, created_at
		 FROM portfolios WHERE id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.SessionID, &cashBalance, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.NewNotFound("portfolio", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio %s: %w", id, err)
	}

	if p.CashBalance, err = decimal.NewFromString(cashBalance); err != nil {
		return nil, fmt.Errorf("failed to parse cash balance for portfolio %s: %w", id, err)
	}
	return &p, nil
}

// ListHoldings returns the live holdings of a portfolio: asset id and
// quantity only, prices are joined later from the quote cache.
func (r *PortfolioRepository) ListHoldings(ctx context.Context, portfolioID string) ([]models.Holding, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT portfolio_id, asset_id, quantity::TEXT
		 FROM holdings WHERE portfolio_id = $1 ORDER BY asset_id`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for portfolio %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var (
			h        models.Holding
			quantity string
		)
		if err := rows.Scan(&h.PortfolioID, &h.AssetID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan holding row: %w", err)
		}
		if h.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("failed to parse holding quantity: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}
