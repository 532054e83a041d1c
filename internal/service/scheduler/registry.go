package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/alarm-clock/internal/clock"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/metrics"
	"github.com/oshokin/alarm-clock/internal/service/challenge"
	"github.com/oshokin/alarm-clock/internal/sound"
)

// DefaultPollInterval is the cadence at which monitors compare the clock with their target.
const DefaultPollInterval = time.Second

var (
	// ErrAlarmNotFound is returned for unknown or retired alarm ids.
	ErrAlarmNotFound = errors.New("alarm not found")
	// ErrNotRinging is returned when starting a challenge for an alarm that is not ringing.
	ErrNotRinging = errors.New("alarm is not ringing")
	// ErrNotChallenging is returned when answering an alarm without an open challenge.
	ErrNotChallenging = errors.New("alarm has no challenge in progress")
	// ErrRegistryClosed is returned when adding alarms after Close.
	ErrRegistryClosed = errors.New("alarm registry is closed")
)

// Options configures a Registry.
type Options struct {
	// Clock supplies the current time and tickers. Defaults to clock.System.
	Clock clock.Clock
	// Player plays the alarm sounds. Required.
	Player sound.Player
	// PollInterval is the monitor tick. Defaults to DefaultPollInterval.
	PollInterval time.Duration
	// DefaultSound is used for alarms created without a sound reference.
	DefaultSound string
	// Rand generates challenge questions. Defaults to a randomly seeded source.
	Rand *rand.Rand
}

// ChallengeView is what the presentation layer shows for an open challenge.
type ChallengeView struct {
	// Question is the expression to solve; empty once the session is finished.
	Question string
	// Index is the zero-based position of the current question.
	Index int
	// Total is the number of questions in the session.
	Total int
}

// Attempt is the outcome of a submitted answer.
type Attempt struct {
	// Result tells whether the session advanced, ended or rejected the input.
	Result challenge.Result
	// State is the alarm state after the answer.
	State domain.State
	// Next describes the question to ask next. After a failure it is the first
	// question of the fresh session the alarm starts ringing with.
	Next ChallengeView
}

// entry binds an alarm to its monitor and challenge session.
type entry struct {
	// alarm is the registry-owned alarm value.
	alarm *domain.Alarm
	// session is the challenge attached while ringing.
	session *challenge.Session
	// cancel stops the monitor.
	cancel context.CancelFunc
	// dismissed is closed once the challenge is solved.
	dismissed chan struct{}
	// done is closed when the monitor exits.
	done chan struct{}
}

// Registry holds alarms and runs one monitor per alarm.
type Registry struct {
	clock        clock.Clock
	player       sound.Player
	pollInterval time.Duration
	defaultSound string

	// ctx is the parent of every monitor context.
	ctx context.Context
	// stop cancels ctx.
	stop context.CancelFunc
	// wg tracks running monitors.
	wg sync.WaitGroup

	// mu protects every field below.
	mu sync.RWMutex
	// rng generates challenge sessions.
	rng *rand.Rand
	// order keeps alarm ids in insertion order.
	order []string
	// entries maps alarm ids to their entry.
	entries map[string]*entry
	// subscribers receive state-change events.
	subscribers []chan Event
	// closed is set by Close.
	closed bool
}

// New creates a registry. Monitors inherit the logger of ctx and stop when Close is called.
func New(ctx context.Context, opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if opts.Rand == nil {
		opts.Rand = challenge.NewRand()
	}

	ctx, stop := context.WithCancel(context.WithoutCancel(ctx))

	return &Registry{
		clock:        opts.Clock,
		player:       opts.Player,
		pollInterval: opts.PollInterval,
		defaultSound: opts.DefaultSound,
		ctx:          ctx,
		stop:         stop,
		rng:          opts.Rand,
		entries:      make(map[string]*entry),
	}
}

// Add schedules an alarm for the next occurrence of an HH:MM time of day.
func (r *Registry) Add(ctx context.Context, timeOfDay, label, soundRef string) (string, error) {
	hour, minute, err := domain.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return "", err
	}

	return r.schedule(ctx, domain.NextOccurrence(r.clock.Now(), hour, minute), label, soundRef)
}

// Schedule adds an alarm for target. Targets that are not after now keep their
// time of day and move to its next occurrence.
func (r *Registry) Schedule(ctx context.Context, target time.Time, label, soundRef string) (string, error) {
	return r.schedule(ctx, domain.Normalize(r.clock.Now(), target), label, soundRef)
}

func (r *Registry) schedule(ctx context.Context, target time.Time, label, soundRef string) (string, error) {
	if soundRef == "" {
		soundRef = r.defaultSound
	}

	alarm := &domain.Alarm{
		ID:        uuid.NewString(),
		Target:    target,
		Label:     domain.NormalizeLabel(label),
		SoundRef:  soundRef,
		State:     domain.StateScheduled,
		CreatedAt: r.clock.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", ErrRegistryClosed
	}

	monitorCtx, cancel := context.WithCancel(r.ctx)
	e := &entry{
		alarm:     alarm,
		cancel:    cancel,
		dismissed: make(chan struct{}),
		done:      make(chan struct{}),
	}

	r.entries[alarm.ID] = e
	r.order = append(r.order, alarm.ID)

	// The ticker is created before the monitor starts so that no tick can be missed.
	ticker := r.clock.NewTicker(r.pollInterval)

	r.wg.Add(1)

	go r.monitor(monitorCtx, e, ticker)

	r.trackLocked(alarm)

	logger.InfoKV(ctx, "Alarm scheduled",
		"alarm_id", alarm.ID,
		"label", alarm.Label,
		"target", alarm.Target.Format(time.RFC3339),
	)

	return alarm.ID, nil
}

// Cancel removes a scheduled alarm and stops its monitor.
// It reports false when the alarm is unknown or already ringing.
func (r *Registry) Cancel(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.alarm.State != domain.StateScheduled {
		return false
	}

	e.alarm.State = domain.StateCancelled
	e.cancel()
	r.removeLocked(id)
	r.trackLocked(e.alarm)

	logger.InfoKV(ctx, "Alarm cancelled", "alarm_id", id, "label", e.alarm.Label)

	return true
}

// Snapshot returns copies of all alarms in insertion order.
func (r *Registry) Snapshot() []*domain.Alarm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Alarm, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.entries[id].alarm.Clone())
	}

	return result
}

// Get returns a copy of the alarm with the provided id.
func (r *Registry) Get(id string) (*domain.Alarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrAlarmNotFound)
	}

	return e.alarm.Clone(), nil
}

// StartChallenge opens the challenge of a ringing alarm.
// Calling it again while the challenge is open returns the current question.
func (r *Registry) StartChallenge(ctx context.Context, id string) (ChallengeView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return ChallengeView{}, fmt.Errorf("%s: %w", id, ErrAlarmNotFound)
	}

	switch e.alarm.State {
	case domain.StateRinging:
		e.alarm.State = domain.StateChallenging
		r.trackLocked(e.alarm)
		logger.InfoKV(ctx, "Challenge started", "alarm_id", id)
	case domain.StateChallenging:
	default:
		return ChallengeView{}, fmt.Errorf("%s is %s: %w", id, e.alarm.State, ErrNotRinging)
	}

	return viewOf(e.session), nil
}

// SubmitAnswer grades an answer for the open challenge of an alarm.
//
// Non-numeric input is reported through Attempt.Result and leaves everything
// unchanged. A failed session puts the alarm back to ringing with a fresh
// session. A solved session dismisses and removes the alarm; SubmitAnswer
// returns after the monitor has stopped the sound.
func (r *Registry) SubmitAnswer(ctx context.Context, id, answer string) (Attempt, error) {
	r.mu.Lock()

	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return Attempt{}, fmt.Errorf("%s: %w", id, ErrAlarmNotFound)
	}

	if e.alarm.State != domain.StateChallenging {
		state := e.alarm.State
		r.mu.Unlock()

		return Attempt{}, fmt.Errorf("%s is %s: %w", id, state, ErrNotChallenging)
	}

	result, err := e.session.Submit(answer)
	if err != nil && !errors.Is(err, challenge.ErrInvalidInput) {
		r.mu.Unlock()
		return Attempt{}, fmt.Errorf("submit answer: %w", err)
	}

	metrics.ChallengeSubmissions.WithLabelValues(string(result)).Inc()

	switch result {
	case challenge.ResultFailed:
		logger.InfoKV(ctx, "Challenge failed, alarm keeps ringing", "alarm_id", id)
		r.ringLocked(e)
	case challenge.ResultSolved:
		logger.InfoKV(ctx, "Challenge solved", "alarm_id", id)

		e.alarm.State = domain.StateDismissed
		r.removeLocked(id)
		r.trackLocked(e.alarm)
		close(e.dismissed)
	case challenge.ResultAdvance, challenge.ResultInvalidInput:
	}

	attempt := Attempt{
		Result: result,
		State:  e.alarm.State,
		Next:   viewOf(e.session),
	}

	r.mu.Unlock()

	if result == challenge.ResultSolved {
		<-e.done
	}

	return attempt, nil
}

// AbandonChallenge closes an open challenge unanswered; the alarm keeps ringing.
func (r *Registry) AbandonChallenge(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrAlarmNotFound)
	}

	if e.alarm.State != domain.StateChallenging {
		return fmt.Errorf("%s is %s: %w", id, e.alarm.State, ErrNotChallenging)
	}

	e.session.Abandon()
	logger.InfoKV(ctx, "Challenge abandoned, alarm keeps ringing", "alarm_id", id)
	r.ringLocked(e)

	return nil
}

// Close stops every monitor and silences the player. Alarms are discarded.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	r.closed = true
	ringing := false

	for _, e := range r.entries {
		ringing = ringing || e.alarm.State.Active()
	}

	r.mu.Unlock()

	r.stop()
	r.wg.Wait()

	if ringing {
		if err := r.player.Stop(); err != nil {
			logger.ErrorKV(r.ctx, "Failed to stop sound", "error", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.subscribers {
		close(ch)
	}

	r.subscribers = nil
}

// ringLocked puts an alarm into the ringing state with a fresh challenge session.
func (r *Registry) ringLocked(e *entry) {
	e.alarm.State = domain.StateRinging
	e.session = challenge.NewSession(r.rng)
	r.trackLocked(e.alarm)
}

// removeLocked deletes an alarm from the registry.
func (r *Registry) removeLocked(id string) {
	delete(r.entries, id)

	for i, candidate := range r.order {
		if candidate == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// trackLocked records a transition in metrics and notifies observers.
func (r *Registry) trackLocked(alarm *domain.Alarm) {
	metrics.AlarmTransitions.WithLabelValues(string(alarm.State)).Inc()
	metrics.AlarmsTracked.Set(float64(len(r.entries)))
	r.emitLocked(alarm)
}

// viewOf describes the current question of a session.
func viewOf(s *challenge.Session) ChallengeView {
	if s == nil {
		return ChallengeView{}
	}

	index, total := s.Progress()

	return ChallengeView{
		Question: s.CurrentQuestion(),
		Index:    index,
		Total:    total,
	}
}
