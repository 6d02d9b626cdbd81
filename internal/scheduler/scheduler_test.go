package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/models"
)

type mockRunner struct {
	mu           sync.Mutex
	sweeps       int
	rankSessions []string
}

func (m *mockRunner) ComputeAllActiveSessionsPerformance(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	return nil
}

func (m *mockRunner) ComputeAndStoreSessionRankings(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rankSessions = append(m.rankSessions, sessionID)
	return nil
}

func (m *mockRunner) rankCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rankSessions)
}

type mockLister struct {
	sessions []models.GameSession
}

func (m *mockLister) ListActive(_ context.Context) ([]models.GameSession, error) {
	return m.sessions, nil
}

func TestSchedulerRankingLoop(t *testing.T) {
	runner := &mockRunner{}
	lister := &mockLister{sessions: []models.GameSession{{ID: "s1", Active: true}}}
	sched := New(runner, lister, 10*time.Millisecond, logging.New(logging.LevelError, logging.FormatText))

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	assert.Eventually(t, func() bool { return runner.rankCount() >= 2 },
		time.Second, 5*time.Millisecond, "ranking refresh should fire on every tick")
}

func TestSchedulerDoubleStartAndStop(t *testing.T) {
	sched := New(&mockRunner{}, &mockLister{}, time.Minute, logging.New(logging.LevelError, logging.FormatText))

	require.NoError(t, sched.Start(context.Background()))
	assert.Error(t, sched.Start(context.Background()))
	require.NoError(t, sched.Stop())
	assert.Error(t, sched.Stop())
}

func TestUntilNextMidnightUTC(t *testing.T) {
	now := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Hour, untilNextMidnightUTC(now))

	// Always strictly positive, even right at midnight.
	midnight := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 24*time.Hour, untilNextMidnightUTC(midnight))

	// Non-UTC inputs normalize to the UTC day boundary.
	est := time.FixedZone("EST", -5*3600)
	local := time.Date(2024, 3, 1, 20, 0, 0, 0, est) // 01:00 UTC Mar 2
	assert.Equal(t, 23*time.Hour, untilNextMidnightUTC(local))
}
