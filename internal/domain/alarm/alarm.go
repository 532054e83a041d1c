package alarm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// State is the lifecycle state of an alarm.
type State string

const (
	// StateScheduled means the monitor is waiting for the target minute.
	StateScheduled State = "scheduled"
	// StateRinging means the sound is playing and a challenge may be started.
	StateRinging State = "ringing"
	// StateChallenging means a challenge session is in progress.
	StateChallenging State = "challenging"
	// StateDismissed means the challenge was solved; the alarm is retired.
	StateDismissed State = "dismissed"
	// StateCancelled means the alarm was cancelled before it fired.
	StateCancelled State = "cancelled"
)

// DefaultLabel is used for alarms created without a label.
const DefaultLabel = "Alarm"

// ErrInvalidTimeFormat is returned for time-of-day strings that are not HH:MM.
var ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

// Terminal reports whether the state ends the alarm's lifetime.
func (s State) Terminal() bool {
	return s == StateDismissed || s == StateCancelled
}

// Active reports whether the alarm is sounding.
func (s State) Active() bool {
	return s == StateRinging || s == StateChallenging
}

// Alarm is a one-shot wall-clock alarm.
type Alarm struct {
	// ID uniquely identifies the alarm for its lifetime.
	ID string
	// Target is the absolute instant the alarm fires at, minute precision.
	Target time.Time
	// Label is the display name.
	Label string
	// SoundRef identifies the sound to play while ringing.
	SoundRef string
	// State is the current lifecycle state.
	State State
	// CreatedAt is when the alarm was scheduled.
	CreatedAt time.Time
}

// Clone returns a copy of the alarm.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Matches reports whether now falls in the alarm's target minute.
func (a *Alarm) Matches(now time.Time) bool {
	return SameMinute(now, a.Target)
}

// SameMinute reports whether a and b share the same calendar minute in a's location.
func SameMinute(a, b time.Time) bool {
	b = b.In(a.Location())

	return a.Year() == b.Year() && a.YearDay() == b.YearDay() &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute()
}

// NormalizeLabel returns the label or DefaultLabel when it is blank.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return DefaultLabel
	}

	return label
}

// ParseTimeOfDay parses a 24-hour HH:MM string.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, 0, fmt.Errorf("%q: %w", s, ErrInvalidTimeFormat)
	}

	if !digits(hh, 1) {
		return 0, 0, fmt.Errorf("%q: hour: %w", s, ErrInvalidTimeFormat)
	}

	hour, err = strconv.Atoi(hh)
	if err != nil || hour > 23 {
		return 0, 0, fmt.Errorf("%q: hour: %w", s, ErrInvalidTimeFormat)
	}

	if !digits(mm, 2) {
		return 0, 0, fmt.Errorf("%q: minute: %w", s, ErrInvalidTimeFormat)
	}

	minute, err = strconv.Atoi(mm)
	if err != nil || minute > 59 {
		return 0, 0, fmt.Errorf("%q: minute: %w", s, ErrInvalidTimeFormat)
	}

	return hour, minute, nil
}

// digits reports whether s holds between minLen and two ASCII digits.
func digits(s string, minLen int) bool {
	if len(s) < minLen || len(s) > 2 {
		return false
	}

	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// NextOccurrence returns today's hour:minute in now's location,
// moved to the next day when it is not after now.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}

	return target
}

// Normalize truncates target to the minute. A target that is not after now
// keeps its time of day and moves to the next occurrence after now.
func Normalize(now, target time.Time) time.Time {
	target = target.In(now.Location()).Truncate(time.Minute)
	if target.After(now) {
		return target
	}

	return NextOccurrence(now, target.Hour(), target.Minute())
}
