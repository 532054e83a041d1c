// Package stopwatch implements a count-up stopwatch with pause, resume and reset.
package stopwatch

import (
	"time"

	"github.com/oshokin/alarm-clock/internal/clock"
)

// DefaultRefresh is the display cadence that keeps milliseconds moving smoothly.
const DefaultRefresh = 16 * time.Millisecond

// Stopwatch accumulates elapsed time while running.
// It is owned by a single view and is not safe for concurrent use.
type Stopwatch struct {
	// clock supplies readings with a monotonic component.
	clock clock.Clock
	// elapsed is the accumulated duration as of the last computation.
	elapsed time.Duration
	// running tells whether time is being accumulated.
	running bool
	// reference is the instant such that elapsed = now - reference while running.
	reference time.Time
}

// New returns a stopped stopwatch at zero.
func New(c clock.Clock) *Stopwatch {
	if c == nil {
		c = clock.System{}
	}

	return &Stopwatch{clock: c}
}

// Start resumes counting from the current elapsed value. It is a no-op while running.
func (s *Stopwatch) Start() {
	if s.running {
		return
	}

	s.reference = s.clock.Now().Add(-s.elapsed)
	s.running = true
}

// Stop pauses counting and keeps the elapsed value.
func (s *Stopwatch) Stop() {
	if !s.running {
		return
	}

	s.elapsed = s.clock.Now().Sub(s.reference)
	s.running = false
}

// Toggle starts a stopped stopwatch or stops a running one.
func (s *Stopwatch) Toggle() {
	if s.running {
		s.Stop()
		return
	}

	s.Start()
}

// Reset stops the stopwatch and clears the elapsed value.
func (s *Stopwatch) Reset() {
	s.running = false
	s.elapsed = 0
	s.reference = time.Time{}
}

// Read returns the elapsed duration.
func (s *Stopwatch) Read() time.Duration {
	if s.running {
		s.elapsed = s.clock.Now().Sub(s.reference)
	}

	return s.elapsed
}

// Running reports whether the stopwatch is counting.
func (s *Stopwatch) Running() bool {
	return s.running
}
