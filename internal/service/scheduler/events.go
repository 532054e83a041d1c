package scheduler

import (
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Event reports an alarm state change to observers.
type Event struct {
	// Alarm is a snapshot of the alarm after the change.
	Alarm *domain.Alarm
	// At is the clock reading when the change happened.
	At time.Time
}

// Subscribe registers an observer channel with the provided buffer size.
// Events are dropped for observers that do not keep up.
// The returned function unregisters the observer and closes its channel.
// After Close the channel is returned already closed.
func (r *Registry) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}

	ch := make(chan Event, buffer)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)

		return ch, func() {}
	}

	r.subscribers = append(r.subscribers, ch)
	r.mu.Unlock()

	unsubscribe := func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		for i, candidate := range r.subscribers {
			if candidate == ch {
				r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
				close(ch)

				return
			}
		}
	}

	return ch, unsubscribe
}

// emitLocked fans an event out without blocking. Callers hold r.mu.
func (r *Registry) emitLocked(alarm *domain.Alarm) {
	event := Event{
		Alarm: alarm.Clone(),
		At:    r.clock.Now(),
	}

	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
