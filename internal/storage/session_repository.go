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

// SessionRepository handles game session reads.
// Monetary columns are NUMERIC, scanned as TEXT and parsed into decimals so
// no precision is lost in transit.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// GetByID retrieves a session, returning NotFound when it does not exist.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.GameSession, error) {
	var (
		s            models.GameSession
		startDate    time.Time
		endDate      time.Time
		startingCash string
	)

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, start_date, end_date, starting_cash::TEXT, active, created_at
		 FROM game_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &startDate, &endDate, &startingCash, &s.Active, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.NewNotFound("session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session %s: %w", id, err)
	}

	s.StartDate = timeseries.DateOf(startDate)
	s.EndDate = timeseries.DateOf(endDate)
	s.StartingCash, err = decimal.NewFromString(startingCash)
	if err != nil {
		return nil, fmt.Errorf("failed to parse starting cash for session %s: %w", id, err)
	}

	return &s, nil
}

// ListActive returns every session flagged active, oldest first.
func (r *SessionRepository) ListActive(ctx context.Context) ([]models.GameSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, start_date, end_date, starting_cash::TEXT, active, created_at
		 FROM game_sessions WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.GameSession
	for rows.Next() {
		var (
			s            models.GameSession
			startDate    time.Time
			endDate      time.Time
			startingCash string
		)
		if err := rows.Scan(&s.ID, &s.Name, &startDate, &endDate, &startingCash, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		s.StartDate = timeseries.DateOf(startDate)
		s.EndDate = timeseries.DateOf(endDate)
		if s.StartingCash, err = decimal.NewFromString(startingCash); err != nil {
			return nil, fmt.Errorf("failed to parse starting cash for session %s: %w", s.ID, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListPortfolios returns every portfolio in a session joined with its
// owner's name, as needed by session-wide performance and ranking runs.
func (r *SessionRepository) ListPortfolios(ctx context.Context, sessionID string) ([]models.PortfolioWithOwner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.user_id, p.session_id, p.cash_balance::TEXT, p.created_at, u.name
		 FROM portfolios p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.session_id = $1
		 ORDER BY p.created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var portfolios []models.PortfolioWithOwner
	for rows.Next() {
		var (
			p           models.PortfolioWithOwner
			cashBalance string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.SessionID, &cashBalance, &p.CreatedAt, &p.OwnerName); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio row: %w", err)
		}
		if p.CashBalance, err = decimal.NewFromString(cashBalance); err != nil {
			return nil, fmt.Errorf("failed to parse cash balance for portfolio %s: %w", p.ID, err)
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}
