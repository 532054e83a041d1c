package scheduler

import (
	"context"

	"github.com/oshokin/alarm-clock/internal/clock"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/metrics"
)

// monitor watches one alarm until it is dismissed, cancelled or the registry closes.
func (r *Registry) monitor(ctx context.Context, e *entry, ticker clock.Ticker) {
	defer r.wg.Done()
	defer close(e.done)

	ctx = logger.WithKV(ctx, "alarm_id", e.alarm.ID)

	if !r.waitForTarget(ctx, e, ticker) {
		logger.Debug(ctx, "Monitor stopped before the alarm fired")
		return
	}

	select {
	case <-ctx.Done():
		// A dismissal that won the race with Close still silences the alarm.
		select {
		case <-e.dismissed:
		default:
			return
		}
	case <-e.dismissed:
	}

	r.retire(ctx, e)
}

// waitForTarget polls the clock until the alarm fires. It reports false when ctx ends first.
func (r *Registry) waitForTarget(ctx context.Context, e *entry, ticker clock.Ticker) bool {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C():
			if r.fire(ctx, e) {
				return true
			}
		}
	}
}

// fire moves a scheduled alarm to ringing when the clock is in its target minute.
// The state check and the transition happen under the registry lock, so a
// concurrent Cancel either wins completely or becomes a no-op.
func (r *Registry) fire(ctx context.Context, e *entry) bool {
	now := r.clock.Now()

	r.mu.Lock()

	if e.alarm.State != domain.StateScheduled || !e.alarm.Matches(now) {
		r.mu.Unlock()
		return false
	}

	r.ringLocked(e)
	soundRef := e.alarm.SoundRef
	label := e.alarm.Label

	r.mu.Unlock()

	logger.InfoKV(ctx, "Alarm ringing", "label", label, "sound", soundRef)

	if err := r.player.Play(soundRef, true); err != nil {
		metrics.SoundFailures.WithLabelValues("alarm").Inc()
		logger.ErrorKV(ctx, "Failed to play alarm sound", "sound", soundRef, "error", err)
	}

	return true
}

// retire stops the sound of a dismissed alarm, which is already out of the registry.
// If other alarms are still ringing, the most recently added one resumes.
func (r *Registry) retire(ctx context.Context, e *entry) {
	if err := r.player.Stop(); err != nil {
		metrics.SoundFailures.WithLabelValues("alarm").Inc()
		logger.ErrorKV(ctx, "Failed to stop alarm sound", "error", err)
	}

	r.mu.Lock()

	var resume string

	for i := len(r.order) - 1; i >= 0; i-- {
		if other := r.entries[r.order[i]].alarm; other.State.Active() {
			resume = other.SoundRef
			break
		}
	}

	r.mu.Unlock()

	logger.Info(ctx, "Alarm dismissed")

	if resume == "" {
		return
	}

	if err := r.player.Play(resume, true); err != nil {
		metrics.SoundFailures.WithLabelValues("alarm").Inc()
		logger.ErrorKV(ctx, "Failed to resume alarm sound", "sound", resume, "error", err)
	}
}
