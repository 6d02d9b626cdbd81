// Package models defines the domain records shared across the engine.
// All monetary values use shopspring/decimal, never float64.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/timeseries"
)

// GameSession is a time-boxed trading competition. Every portfolio opened in
// a session starts with the session's starting cash allocation, which is the
// baseline for both value reconstruction and return-percent computation.
type GameSession struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	StartDate    timeseries.Date `json:"startDate" db:"start_date"`
	EndDate      timeseries.Date `json:"endDate" db:"end_date"`
	StartingCash decimal.Decimal `json:"startingCash" db:"starting_cash"`
	Active       bool            `json:"active" db:"active"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// ComputationWindow returns the date interval performance is computed over:
// session start through min(today, session end).
func (s *GameSession) ComputationWindow(today timeseries.Date) (start, end timeseries.Date) {
	return s.StartDate, timeseries.MinDate(today, s.EndDate)
}
