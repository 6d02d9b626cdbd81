package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

// TransactionRepository reads the immutable trade ledger.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// ListByPortfolioUpTo returns a portfolio's transactions with date <= end,
// ascending by date. This is the replay order for value reconstruction;
// a transaction dated exactly on end is included.
func (r *TransactionRepository) ListByPortfolioUpTo(ctx context.Context, portfolioID string, end timeseries.Date) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, portfolio_id, asset_id, type, date, quantity::TEXT, total::TEXT
		 FROM transactions
		 WHERE portfolio_id = $1 AND date <= $2
		 ORDER BY date, id`, portfolioID, end.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for portfolio %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var (
			tx       models.Transaction
			date     time.Time
			quantity string
			total    string
		)
		if err := rows.Scan(&tx.ID, &tx.PortfolioID, &tx.AssetID, &tx.Type, &date, &quantity, &total); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		tx.Date = timeseries.DateOf(date)
		if tx.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("failed to parse transaction quantity: %w", err)
		}
		if tx.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("failed to parse transaction total: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
