// Package scheduler triggers the performance and ranking computations on
// their cadences: the full performance sweep daily at midnight UTC, the
// live leaderboard refresh on a shorter interval.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/models"
)

// Runner is the computation surface the scheduler drives.
type Runner interface {
	ComputeAllActiveSessionsPerformance(ctx context.Context) error
	ComputeAndStoreSessionRankings(ctx context.Context, sessionID string) error
}

// SessionLister enumerates the sessions whose leaderboards stay live.
type SessionLister interface {
	ListActive(ctx context.Context) ([]models.GameSession, error)
}

// Scheduler owns the background loops. It assumes it is the only writer for
// any given session: run one scheduler per deployment.
type Scheduler struct {
	runner          Runner
	sessions        SessionLister
	rankingInterval time.Duration
	log             *logging.Logger

	stopChan chan struct{}
	running  bool
}

func New(runner Runner, sessions SessionLister, rankingInterval time.Duration, log *logging.Logger) *Scheduler {
	return &Scheduler{
		runner:          runner,
		sessions:        sessions,
		rankingInterval: rankingInterval,
		log:             log.WithField("component", "scheduler"),
		stopChan:        make(chan struct{}),
	}
}

// Start launches the daily performance loop and the ranking refresh loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true

	firstRun := untilNextMidnightUTC(time.Now())
	s.log.WithField("first_run_in", firstRun.String()).Info("scheduler started")

	go s.performanceLoop(ctx, firstRun)
	go s.rankingLoop(ctx)
	return nil
}

// Stop halts both loops. In-flight runs finish; the context passed to Start
// governs their cancellation.
func (s *Scheduler) Stop() error {
	if !s.running {
		return fmt.Errorf("scheduler is not running")
	}
	close(s.stopChan)
	s.running = false
	s.log.Info("scheduler stopping")
	return nil
}

func (s *Scheduler) performanceLoop(ctx context.Context, firstRun time.Duration) {
	select {
	case <-time.After(firstRun):
		s.runPerformance(ctx)
	case <-s.stopChan:
		return
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runPerformance(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) rankingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.rankingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refreshRankings(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runPerformance(ctx context.Context) {
	if err := s.runner.ComputeAllActiveSessionsPerformance(ctx); err != nil {
		s.log.WithError(err).Error("daily performance sweep failed")
	}
}

func (s *Scheduler) refreshRankings(ctx context.Context) {
	sessions, err := s.sessions.ListActive(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to list active sessions for ranking refresh")
		return
	}
	for _, session := range sessions {
		if err := s.runner.ComputeAndStoreSessionRankings(ctx, session.ID); err != nil {
			s.log.WithError(err).WithField("session_id", session.ID).Error("ranking refresh failed")
		}
	}
}

// untilNextMidnightUTC is the wait before the first daily run, measured
// from now.
func untilNextMidnightUTC(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}
