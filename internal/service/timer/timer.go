package timer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/alarm-clock/internal/clock"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/metrics"
	"github.com/oshokin/alarm-clock/internal/sound"
)

// DefaultTick is the countdown step.
const DefaultTick = time.Second

var (
	// ErrInvalidDuration is returned for non-numeric, negative or zero durations.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrTimerArmed is returned when arming a timer that still has time remaining.
	ErrTimerArmed = errors.New("timer is already armed")
	// ErrTimerNotArmed is returned when starting a timer with nothing remaining.
	ErrTimerNotArmed = errors.New("timer is not armed")
)

// EventType defines the kind of timer event.
type EventType string

const (
	// EventTick reports the remaining time after a countdown step.
	EventTick EventType = "tick"
	// EventExpired reports that the countdown reached zero.
	EventExpired EventType = "expired"
)

// Event is a timer update for observers.
type Event struct {
	Type      EventType
	Remaining time.Duration
	At        time.Time
}

// Options configures a Timer.
type Options struct {
	// Clock supplies tickers. Defaults to clock.System.
	Clock clock.Clock
	// Player plays the expiration sound. Required.
	Player sound.Player
	// SoundRef is the sound played on expiration.
	SoundRef string
	// Tick is the countdown step. Defaults to DefaultTick.
	Tick time.Duration
}

// Timer is a countdown timer.
type Timer struct {
	clock    clock.Clock
	player   sound.Player
	soundRef string
	tick     time.Duration

	// mu protects every field below.
	mu sync.Mutex
	// remaining is the time left.
	remaining time.Duration
	// running tells whether the countdown is active.
	running bool
	// ringing tells whether the expiration sound was started and not yet silenced.
	ringing bool
	// stopCh ends the current countdown loop; nil when no loop runs.
	stopCh chan struct{}
	// events holds subscriber channels.
	events []chan Event
}

// New creates an unarmed timer.
func New(opts Options) *Timer {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}

	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}

	return &Timer{
		clock:    opts.Clock,
		player:   opts.Player,
		soundRef: opts.SoundRef,
		tick:     opts.Tick,
	}
}

// ParseDuration builds a duration from hours, minutes and seconds fields.
// Empty fields count as zero.
func ParseDuration(hours, minutes, seconds string) (time.Duration, error) {
	var total time.Duration

	for _, field := range []struct {
		name  string
		value string
		unit  time.Duration
	}{
		{"hours", hours, time.Hour},
		{"minutes", minutes, time.Minute},
		{"seconds", seconds, time.Second},
	} {
		value := strings.TrimSpace(field.value)
		if value == "" {
			continue
		}

		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%s %q: %w", field.name, field.value, ErrInvalidDuration)
		}

		total += time.Duration(n) * field.unit
	}

	return total, nil
}

// Arm loads a countdown duration without starting it.
// It is only permitted when nothing remains from a previous countdown.
func (t *Timer) Arm(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s: %w", d, ErrInvalidDuration)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.remaining != 0 {
		return ErrTimerArmed
	}

	t.remaining = d.Truncate(t.tick)
	if t.remaining == 0 {
		return fmt.Errorf("%s is shorter than one step: %w", d, ErrInvalidDuration)
	}

	return nil
}

// ArmFields parses hours, minutes and seconds and arms the timer.
// On invalid input the timer stays unarmed.
func (t *Timer) ArmFields(hours, minutes, seconds string) error {
	d, err := ParseDuration(hours, minutes, seconds)
	if err != nil {
		return err
	}

	return t.Arm(d)
}

// Start resumes the countdown. It is a no-op while running.
func (t *Timer) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}

	if t.remaining == 0 {
		return ErrTimerNotArmed
	}

	stopCh := make(chan struct{})
	t.stopCh = stopCh
	t.running = true

	// The ticker is created before the loop starts so that no tick can be missed.
	go t.run(ctx, t.clock.NewTicker(t.tick), stopCh)

	return nil
}

// Stop pauses the countdown and silences an expired timer.
func (t *Timer) Stop(ctx context.Context) {
	t.mu.Lock()
	ringing := t.stopLocked()
	t.mu.Unlock()

	t.silence(ctx, ringing)
}

// Toggle starts a stopped timer or stops a running one.
func (t *Timer) Toggle(ctx context.Context) error {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()

	if running {
		t.Stop(ctx)
		return nil
	}

	return t.Start(ctx)
}

// Reset stops the countdown, silences the sound and zeroes the remaining time.
func (t *Timer) Reset(ctx context.Context) {
	t.mu.Lock()
	ringing := t.stopLocked()
	t.remaining = 0
	t.mu.Unlock()

	t.silence(ctx, ringing)
}

// Read returns the remaining time and whether the countdown is running.
func (t *Timer) Read() (remaining time.Duration, running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.remaining, t.running
}

// Ringing reports whether the timer expired and was not silenced yet.
func (t *Timer) Ringing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.ringing
}

// Subscribe registers an observer channel. Events are dropped for slow observers.
func (t *Timer) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}

	ch := make(chan Event, buffer)

	t.mu.Lock()
	t.events = append(t.events, ch)
	t.mu.Unlock()

	return ch
}

// stopLocked ends the countdown loop and reports whether the sound has to be silenced.
func (t *Timer) stopLocked() bool {
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}

	t.running = false
	ringing := t.ringing
	t.ringing = false

	return ringing
}

// silence stops the expiration sound when it was playing.
func (t *Timer) silence(ctx context.Context, ringing bool) {
	if !ringing {
		return
	}

	if err := t.player.Stop(); err != nil {
		metrics.SoundFailures.WithLabelValues("timer").Inc()
		logger.ErrorKV(ctx, "Failed to stop timer sound", "error", err)
	}
}

// run counts down until stopped or expired.
func (t *Timer) run(ctx context.Context, ticker clock.Ticker, stopCh chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			if t.stopCh == stopCh {
				t.stopLocked()
			}
			t.mu.Unlock()

			return
		case <-stopCh:
			return
		case <-ticker.C():
			if t.step(ctx, stopCh) {
				return
			}
		}
	}
}

// step advances the countdown by one tick and reports whether the loop must end.
func (t *Timer) step(ctx context.Context, stopCh chan struct{}) bool {
	t.mu.Lock()

	// A newer loop replaced this one.
	if t.stopCh != stopCh {
		t.mu.Unlock()
		return true
	}

	t.remaining = max(0, t.remaining-t.tick)

	if t.remaining > 0 {
		t.emitLocked(EventTick)
		t.mu.Unlock()

		return false
	}

	t.running = false
	t.ringing = true
	t.stopCh = nil
	t.emitLocked(EventExpired)
	t.mu.Unlock()

	metrics.TimerExpirations.Inc()
	logger.InfoKV(ctx, "Timer expired", "sound", t.soundRef)

	if err := t.player.Play(t.soundRef, true); err != nil {
		metrics.SoundFailures.WithLabelValues("timer").Inc()
		logger.ErrorKV(ctx, "Failed to play timer sound", "sound", t.soundRef, "error", err)
	}

	return true
}

// emitLocked fans an event out without blocking. Callers hold t.mu.
func (t *Timer) emitLocked(eventType EventType) {
	event := Event{
		Type:      eventType,
		Remaining: t.remaining,
		At:        t.clock.Now(),
	}

	for _, ch := range t.events {
		select {
		case ch <- event:
		default:
		}
	}
}
