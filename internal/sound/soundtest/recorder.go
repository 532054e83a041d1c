// Package soundtest provides a recording sound.Player for tests.
package soundtest

import "sync"

// Recorder is a sound.Player that records calls instead of producing sound.
type Recorder struct {
	// mu protects all fields.
	mu sync.Mutex
	// plays lists the sound references passed to Play, in call order.
	plays []string
	// stops counts Stop calls.
	stops int
	// active is the sound currently "audible", empty when silent.
	active string
	// playErr is returned by Play when set.
	playErr error
}

// Play records ref as the active sound.
func (r *Recorder) Play(ref string, _ bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.plays = append(r.plays, ref)

	if r.playErr != nil {
		return r.playErr
	}

	r.active = ref

	return nil
}

// Stop records a stop and silences the active sound.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stops++
	r.active = ""

	return nil
}

// FailPlays makes subsequent Play calls return err.
func (r *Recorder) FailPlays(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.playErr = err
}

// Plays returns a copy of the recorded Play references.
func (r *Recorder) Plays() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.plays...)
}

// Stops returns the number of Stop calls.
func (r *Recorder) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stops
}

// Active returns the sound currently playing, empty when silent.
func (r *Recorder) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active
}
