package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New(3, time.Hour)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := b.Execute(func() error { return boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, StateOpen, b.State())

	// While open, calls fail fast without invoking fn.
	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	b := New(3, time.Hour)
	boom := errors.New("boom")

	_ = b.Execute(func() error { return boom })
	_ = b.Execute(func() error { return boom })
	require.NoError(t, b.Execute(func() error { return nil }))
	_ = b.Execute(func() error { return boom })
	_ = b.Execute(func() error { return boom })

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerProbesAfterCooldown(t *testing.T) {
	b := New(1, time.Millisecond)

	_ = b.Execute(func() error { return errors.New("boom") })
	require.Equal(t, StateOpen, b.State())

	time.Sleep(5 * time.Millisecond)

	// A successful probe closes the breaker.
	require.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b := New(1, time.Millisecond)

	_ = b.Execute(func() error { return errors.New("boom") })
	time.Sleep(5 * time.Millisecond)

	_ = b.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, b.State())
}
