package scheduler

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/clock"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/challenge"
	"github.com/oshokin/alarm-clock/internal/sound/soundtest"
)

var errDeviceBusy = errors.New("device busy")

// startOfTest is the fake wall-clock reading every test starts from.
var startOfTest = time.Date(2026, time.October, 19, 8, 30, 15, 0, time.UTC)

// fixture bundles a registry with its fake collaborators.
type fixture struct {
	clock  *clock.Fake
	player *soundtest.Recorder
	reg    *Registry
	events <-chan Event
	// unsubscribe releases the event subscription.
	unsubscribe func()
}

// newFixture builds a registry on a fake clock. It must run inside a synctest bubble
// and be closed before the bubble ends.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		clock:  clock.NewFake(startOfTest),
		player: new(soundtest.Recorder),
	}

	f.reg = New(context.Background(), Options{
		Clock:        f.clock,
		Player:       f.player,
		DefaultSound: "default.wav",
		Rand:         rand.New(rand.NewPCG(11, 12)),
	})

	f.events, f.unsubscribe = f.reg.Subscribe(64)

	return f
}

// close stops the registry before the bubble ends.
func (f *fixture) close() {
	f.unsubscribe()
	f.reg.Close()
}

// advance moves the fake clock and waits until every monitor has reacted.
func (f *fixture) advance(d time.Duration) {
	f.clock.Advance(d)
	synctest.Wait()
}

// drain returns the states of all buffered events.
func (f *fixture) drain() []domain.State {
	var states []domain.State

	for {
		select {
		case event := <-f.events:
			states = append(states, event.Alarm.State)
		default:
			return states
		}
	}
}

// state returns the current state of an alarm.
func (f *fixture) state(t *testing.T, id string) domain.State {
	t.Helper()

	a, err := f.reg.Get(id)
	require.NoError(t, err)

	return a.State
}

// solve evaluates a generated challenge expression.
func solve(t *testing.T, expression string) int {
	t.Helper()

	fields := strings.Fields(expression)
	require.Len(t, fields, 3, expression)

	a, err := strconv.Atoi(fields[0])
	require.NoError(t, err)

	b, err := strconv.Atoi(fields[2])
	require.NoError(t, err)

	switch fields[1] {
	case "+":
		return a + b
	case "-":
		return a - b
	default:
		return a * b
	}
}

// answerSession answers every question correctly except, optionally, the final one.
func answerSession(t *testing.T, reg *Registry, id string, view ChallengeView, finalCorrect bool) Attempt {
	t.Helper()

	ctx := context.Background()

	for {
		answer := solve(t, view.Question)
		last := view.Index == view.Total-1

		if last && !finalCorrect {
			answer++
		}

		attempt, err := reg.SubmitAnswer(ctx, id, strconv.Itoa(answer))
		require.NoError(t, err)

		if last {
			return attempt
		}

		require.Equal(t, challenge.ResultAdvance, attempt.Result)
		require.Equal(t, domain.StateChallenging, attempt.State)
		require.Equal(t, view.Index+1, attempt.Next.Index)

		view = attempt.Next
	}
}

// TestRegistry_AddRejectsMalformedTime verifies that no alarm or monitor is created for bad input.
func TestRegistry_AddRejectsMalformedTime(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()

		_, err := f.reg.Add(context.Background(), "25:99", "Broken", "")
		require.ErrorIs(t, err, domain.ErrInvalidTimeFormat)
		require.Empty(t, f.reg.Snapshot())
		require.Zero(t, f.clock.TickerCount())
		require.Empty(t, f.drain())
	})
}

// TestRegistry_AddDefaults checks label, sound and next-day normalization.
func TestRegistry_AddDefaults(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()

		id, err := f.reg.Add(context.Background(), "08:30", "", "")
		require.NoError(t, err)

		a, err := f.reg.Get(id)
		require.NoError(t, err)
		require.Equal(t, domain.DefaultLabel, a.Label)
		require.Equal(t, "default.wav", a.SoundRef)
		require.Equal(t, domain.StateScheduled, a.State)
		require.Equal(t, time.Date(2026, time.October, 20, 8, 30, 0, 0, time.UTC), a.Target)

		id, err = f.reg.Schedule(context.Background(), startOfTest.Add(2*time.Hour+30*time.Second), "Gym", "gym.wav")
		require.NoError(t, err)

		a, err = f.reg.Get(id)
		require.NoError(t, err)
		require.Equal(t, time.Date(2026, time.October, 19, 10, 30, 0, 0, time.UTC), a.Target)
		require.Equal(t, "gym.wav", a.SoundRef)

		_, err = f.reg.Get("missing")
		require.ErrorIs(t, err, ErrAlarmNotFound)
	})
}

// TestRegistry_FiresAtTargetMinuteOnly checks that the alarm rings at the first tick of its minute and not before.
func TestRegistry_FiresAtTargetMinuteOnly(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()

		id, err := f.reg.Add(context.Background(), "08:31", "Wake up", "wake.wav")
		require.NoError(t, err)

		for range 44 {
			f.advance(time.Second)
			require.Equal(t, domain.StateScheduled, f.state(t, id))
		}

		require.Empty(t, f.player.Plays())

		// 08:31:00.
		f.advance(time.Second)
		require.Equal(t, domain.StateRinging, f.state(t, id))
		require.Equal(t, []string{"wake.wav"}, f.player.Plays())
		require.Equal(t, "wake.wav", f.player.Active())

		// Later ticks in the same minute do not fire again.
		f.advance(30 * time.Second)
		require.Len(t, f.player.Plays(), 1)
		require.Equal(t, []domain.State{domain.StateScheduled, domain.StateRinging}, f.drain())
	})
}

// TestRegistry_CancelScheduled removes the alarm, stops its monitor and never plays a sound.
func TestRegistry_CancelScheduled(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		ctx := context.Background()

		id, err := f.reg.Add(ctx, "08:31", "Wake up", "")
		require.NoError(t, err)

		f.advance(10 * time.Second)
		require.True(t, f.reg.Cancel(ctx, id))
		synctest.Wait()

		require.Empty(t, f.reg.Snapshot())
		require.Zero(t, f.clock.TickerCount())
		require.Equal(t, []domain.State{domain.StateScheduled, domain.StateCancelled}, f.drain())

		// Idempotent.
		require.False(t, f.reg.Cancel(ctx, id))

		f.advance(2 * time.Minute)
		require.Empty(t, f.player.Plays())
		require.Zero(t, f.player.Stops())
	})
}

// TestRegistry_CancelAfterRingingIsNoop keeps a ringing alarm untouched.
func TestRegistry_CancelAfterRingingIsNoop(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		ctx := context.Background()

		id, err := f.reg.Add(ctx, "08:31", "Wake up", "")
		require.NoError(t, err)

		f.advance(time.Minute)
		require.Equal(t, domain.StateRinging, f.state(t, id))

		require.False(t, f.reg.Cancel(ctx, id))
		require.Equal(t, domain.StateRinging, f.state(t, id))
		require.Len(t, f.reg.Snapshot(), 1)
		require.Zero(t, f.player.Stops())

		_, err = f.reg.StartChallenge(ctx, id)
		require.NoError(t, err)
		require.False(t, f.reg.Cancel(ctx, id))
		require.Equal(t, domain.StateChallenging, f.state(t, id))
	})
}

// TestRegistry_EndToEnd rings an alarm, fails one challenge and solves the next one.
func TestRegistry_EndToEnd(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		ctx := context.Background()

		next := startOfTest.Add(time.Minute)
		id, err := f.reg.Add(ctx, next.Format("15:04"), "Standup", "standup.wav")
		require.NoError(t, err)

		f.advance(time.Minute)
		require.Equal(t, domain.StateRinging, f.state(t, id))
		require.Equal(t, []string{"standup.wav"}, f.player.Plays())

		_, err = f.reg.SubmitAnswer(ctx, id, "1")
		require.ErrorIs(t, err, ErrNotChallenging)

		view, err := f.reg.StartChallenge(ctx, id)
		require.NoError(t, err)
		require.Zero(t, view.Index)
		require.Contains(t, []int{3, 4}, view.Total)
		require.Equal(t, domain.StateChallenging, f.state(t, id))

		attempt := answerSession(t, f.reg, id, view, false)
		require.Equal(t, challenge.ResultFailed, attempt.Result)
		require.Equal(t, domain.StateRinging, attempt.State)
		require.Equal(t, domain.StateRinging, f.state(t, id))
		require.Equal(t, "standup.wav", f.player.Active())
		require.Zero(t, f.player.Stops())
		require.Len(t, f.reg.Snapshot(), 1)

		// A fresh session is opened on retry.
		view, err = f.reg.StartChallenge(ctx, id)
		require.NoError(t, err)
		require.Zero(t, view.Index)
		require.Equal(t, attempt.Next, view)

		attempt = answerSession(t, f.reg, id, view, true)
		require.Equal(t, challenge.ResultSolved, attempt.Result)
		require.Equal(t, domain.StateDismissed, attempt.State)

		require.Equal(t, 1, f.player.Stops())
		require.Empty(t, f.player.Active())
		require.Empty(t, f.reg.Snapshot())
		require.Len(t, f.player.Plays(), 1)

		synctest.Wait()
		require.Equal(t, []domain.State{
			domain.StateScheduled,
			domain.StateRinging,
			domain.StateChallenging,
			domain.StateRinging,
			domain.StateChallenging,
			domain.StateDismissed,
		}, f.drain())
	})
}

// TestRegistry_InvalidAnswerAndAbandon re-asks on bad input and keeps ringing after abandonment.
func TestRegistry_InvalidAnswerAndAbandon(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		ctx := context.Background()

		id, err := f.reg.Add(ctx, "08:31", "", "")
		require.NoError(t, err)

		f.advance(time.Minute)

		view, err := f.reg.StartChallenge(ctx, id)
		require.NoError(t, err)

		// Reopening the challenge returns the same question.
		again, err := f.reg.StartChallenge(ctx, id)
		require.NoError(t, err)
		require.Equal(t, view, again)

		attempt, err := f.reg.SubmitAnswer(ctx, id, "abc")
		require.NoError(t, err)
		require.Equal(t, challenge.ResultInvalidInput, attempt.Result)
		require.Equal(t, domain.StateChallenging, attempt.State)
		require.Equal(t, view, attempt.Next)

		require.NoError(t, f.reg.AbandonChallenge(ctx, id))
		require.Equal(t, domain.StateRinging, f.state(t, id))
		require.Equal(t, "default.wav", f.player.Active())

		require.ErrorIs(t, f.reg.AbandonChallenge(ctx, id), ErrNotChallenging)
		require.ErrorIs(t, f.reg.AbandonChallenge(ctx, "missing"), ErrAlarmNotFound)
	})
}

// TestRegistry_StartChallengeRequiresRinging rejects scheduled and unknown alarms.
func TestRegistry_StartChallengeRequiresRinging(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		ctx := context.Background()

		id, err := f.reg.Add(ctx, "09:00", "", "")
		require.NoError(t, err)

		_, err = f.reg.StartChallenge(ctx, id)
		require.ErrorIs(t, err, ErrNotRinging)

		_, err = f.reg.StartChallenge(ctx, "missing")
		require.ErrorIs(t, err, ErrAlarmNotFound)

		_, err = f.reg.SubmitAnswer(ctx, "missing", "1")
		require.ErrorIs(t, err, ErrAlarmNotFound)
	})
}

// TestRegistry_SoundFailureIsNonFatal keeps the state machine going when the player fails.
func TestRegistry_SoundFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		f.player.FailPlays(errDeviceBusy)

		id, err := f.reg.Add(context.Background(), "08:31", "", "")
		require.NoError(t, err)

		f.advance(time.Minute)
		require.Equal(t, domain.StateRinging, f.state(t, id))
		require.Len(t, f.player.Plays(), 1)
	})
}

// TestRegistry_ClockJumpSkipsMinute documents that a skipped minute is never caught up.
func TestRegistry_ClockJumpSkipsMinute(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()

		id, err := f.reg.Add(context.Background(), "08:31", "", "")
		require.NoError(t, err)

		f.clock.Set(startOfTest.Add(5 * time.Minute))
		f.advance(time.Second)
		require.Equal(t, domain.StateScheduled, f.state(t, id))
		require.Empty(t, f.player.Plays())
	})
}

// TestRegistry_SnapshotOrder keeps insertion order across removals.
func TestRegistry_SnapshotOrder(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		ctx := context.Background()

		var ids []string

		for _, at := range []string{"23:00", "06:00", "12:00"} {
			id, err := f.reg.Add(ctx, at, at, "")
			require.NoError(t, err)

			ids = append(ids, id)
		}

		require.True(t, f.reg.Cancel(ctx, ids[1]))

		snapshot := f.reg.Snapshot()
		require.Len(t, snapshot, 2)
		require.Equal(t, ids[0], snapshot[0].ID)
		require.Equal(t, ids[2], snapshot[1].ID)

		// Snapshots are copies.
		snapshot[0].Label = "changed"
		require.Equal(t, "23:00", f.reg.Snapshot()[0].Label)
	})
}

// TestRegistry_DismissResumesOtherRingingAlarm restarts the sound of an alarm that is still ringing.
func TestRegistry_DismissResumesOtherRingingAlarm(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		ctx := context.Background()

		first, err := f.reg.Add(ctx, "08:31", "first", "first.wav")
		require.NoError(t, err)

		second, err := f.reg.Add(ctx, "08:31", "second", "second.wav")
		require.NoError(t, err)

		f.advance(time.Minute)
		require.Equal(t, domain.StateRinging, f.state(t, first))
		require.Equal(t, domain.StateRinging, f.state(t, second))

		view, err := f.reg.StartChallenge(ctx, first)
		require.NoError(t, err)

		attempt := answerSession(t, f.reg, first, view, true)
		require.Equal(t, challenge.ResultSolved, attempt.Result)

		require.Equal(t, 1, f.player.Stops())
		require.Equal(t, "second.wav", f.player.Active())
		require.Len(t, f.reg.Snapshot(), 1)
	})
}

// TestRegistry_CloseStopsMonitors silences ringing alarms and rejects new ones.
func TestRegistry_CloseStopsMonitors(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		ctx := context.Background()

		_, err := f.reg.Add(ctx, "08:31", "", "")
		require.NoError(t, err)

		_, err = f.reg.Add(ctx, "09:31", "", "")
		require.NoError(t, err)

		f.advance(time.Minute)

		f.reg.Close()
		require.Zero(t, f.clock.TickerCount())
		require.Equal(t, 1, f.player.Stops())

		_, err = f.reg.Add(ctx, "10:00", "", "")
		require.ErrorIs(t, err, ErrRegistryClosed)

		// Second Close is a no-op.
		f.reg.Close()
	})
}

// TestRegistry_ConcurrentAddCancel exercises the registry lock from many goroutines.
func TestRegistry_ConcurrentAddCancel(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()
		ctx := context.Background()

		const workers = 16

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			kept = make(map[string]bool)
		)

		for i := range workers {
			wg.Go(func() {
				id, err := f.reg.Add(ctx, "09:00", strconv.Itoa(i), "")
				require.NoError(t, err)

				if i%2 == 0 {
					require.True(t, f.reg.Cancel(ctx, id))
					return
				}

				mu.Lock()
				kept[id] = true
				mu.Unlock()
			})

			wg.Go(func() {
				for _, a := range f.reg.Snapshot() {
					require.NotEmpty(t, a.ID)
					require.Equal(t, domain.StateScheduled, a.State)
				}
			})
		}

		wg.Wait()

		snapshot := f.reg.Snapshot()
		require.Len(t, snapshot, workers/2)

		for _, a := range snapshot {
			require.True(t, kept[a.ID])
		}
	})
}

// TestRegistry_ScheduleKeepsDate does not ring a target days ahead at today's matching minute.
func TestRegistry_ScheduleKeepsDate(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		defer f.close()

		id, err := f.reg.Schedule(context.Background(), startOfTest.Add(48*time.Hour+5*time.Minute), "Trip", "")
		require.NoError(t, err)

		a, err := f.reg.Get(id)
		require.NoError(t, err)
		require.Equal(t, time.Date(2026, time.October, 21, 8, 35, 0, 0, time.UTC), a.Target)

		f.advance(5*time.Minute + time.Second)
		require.Equal(t, domain.StateScheduled, f.state(t, id))
		require.Empty(t, f.player.Plays())

		f.advance(48 * time.Hour)
		require.Equal(t, domain.StateRinging, f.state(t, id))
	})
}

// TestRegistry_SubscribeAfterClose returns a closed channel.
func TestRegistry_SubscribeAfterClose(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.close()

		events, unsubscribe := f.reg.Subscribe(1)
		defer unsubscribe()

		_, ok := <-events
		require.False(t, ok)
	})
}

// gatedPlayer blocks Stop until release is closed.
type gatedPlayer struct {
	soundtest.Recorder

	release chan struct{}
}

func (p *gatedPlayer) Stop() error {
	<-p.release

	return p.Recorder.Stop()
}

// TestRegistry_DismissedAlarmLeavesSnapshotAtOnce hides a solved alarm before its sound stops.
func TestRegistry_DismissedAlarmLeavesSnapshotAtOnce(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		c := clock.NewFake(startOfTest)
		player := &gatedPlayer{release: make(chan struct{})}
		reg := New(context.Background(), Options{
			Clock:  c,
			Player: player,
			Rand:   rand.New(rand.NewPCG(3, 4)),
		})
		defer reg.Close()
		ctx := context.Background()

		id, err := reg.Add(ctx, "08:31", "Standup", "standup.wav")
		require.NoError(t, err)

		c.Advance(time.Minute)
		synctest.Wait()

		view, err := reg.StartChallenge(ctx, id)
		require.NoError(t, err)

		for view.Index < view.Total-1 {
			attempt, err := reg.SubmitAnswer(ctx, id, "0")
			require.NoError(t, err)

			view = attempt.Next
		}

		answer := strconv.Itoa(solve(t, view.Question))
		done := make(chan Attempt, 1)

		go func() {
			attempt, err := reg.SubmitAnswer(ctx, id, answer)
			if err == nil {
				done <- attempt
			}

			close(done)
		}()

		// The monitor is stuck in Stop while the alarm is already gone.
		synctest.Wait()
		require.Empty(t, reg.Snapshot())

		_, err = reg.Get(id)
		require.ErrorIs(t, err, ErrAlarmNotFound)

		close(player.release)

		attempt, ok := <-done
		require.True(t, ok)
		require.Equal(t, challenge.ResultSolved, attempt.Result)
		require.Equal(t, domain.StateDismissed, attempt.State)
		require.Empty(t, player.Active())
	})
}
