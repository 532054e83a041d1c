package stopwatch

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/clock"
)

// TestStopwatch_PauseResume accumulates elapsed time across pauses.
func TestStopwatch_PauseResume(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC))
	s := New(c)
	require.Zero(t, s.Read())
	require.False(t, s.Running())

	s.Start()
	c.Advance(1500 * time.Millisecond)
	require.Equal(t, 1500*time.Millisecond, s.Read())

	s.Stop()
	c.Advance(time.Hour)
	require.Equal(t, 1500*time.Millisecond, s.Read())
	require.False(t, s.Running())

	s.Toggle()
	require.True(t, s.Running())
	c.Advance(250 * time.Millisecond)

	// Starting twice keeps the original reference.
	s.Start()
	require.Equal(t, 1750*time.Millisecond, s.Read())

	s.Toggle()
	require.False(t, s.Running())
	require.Equal(t, 1750*time.Millisecond, s.Read())
}

// TestStopwatch_Reset always returns to a stopped zero state.
func TestStopwatch_Reset(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(time.Unix(0, 0))
	s := New(c)

	s.Start()
	c.Advance(3 * time.Second)
	s.Reset()
	require.Zero(t, s.Read())
	require.False(t, s.Running())

	s.Start()
	c.Advance(time.Second)
	s.Stop()
	s.Reset()
	require.Zero(t, s.Read())
	require.False(t, s.Running())

	c.Advance(time.Second)
	require.Zero(t, s.Read())
}

// TestStopwatch_SystemClockRoundTrip measures a 500ms run on the real clock inside a bubble.
func TestStopwatch_SystemClockRoundTrip(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := New(nil)

		s.Start()
		time.Sleep(500 * time.Millisecond)
		s.Stop()

		require.Equal(t, 500*time.Millisecond, s.Read())
	})
}

// TestStopwatch_RealClock checks the stopwatch against the monotonic system clock.
func TestStopwatch_RealClock(t *testing.T) {
	t.Parallel()

	s := New(clock.System{})

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	elapsed := s.Read()
	require.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	require.Less(t, elapsed, 2*time.Second)
}
