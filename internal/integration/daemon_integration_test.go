package integration

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/clock"
	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/challenge"
	"github.com/oshokin/alarm-clock/internal/service/client"
	"github.com/oshokin/alarm-clock/internal/service/common"
	"github.com/oshokin/alarm-clock/internal/service/server"
	"github.com/oshokin/alarm-clock/internal/sound/soundtest"
)

// daemon is a running alarm-clockd with fake collaborators.
type daemon struct {
	addr       string
	configPath string
	clock      *clock.Fake
	player     *soundtest.Recorder
}

// reserveAddress returns a loopback address that was free a moment ago.
func reserveAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// startDaemon writes a configuration and runs the daemon until the test ends.
func startDaemon(t *testing.T, now time.Time) *daemon {
	t.Helper()

	d := &daemon{
		addr:       reserveAddress(t),
		configPath: filepath.Join(t.TempDir(), "settings.yaml"),
		clock:      clock.NewFake(now),
		player:     new(soundtest.Recorder),
	}

	cfg := config.New()
	cfg.ServerAddress = d.addr
	cfg.DefaultSound = "wake.wav"
	cfg.Timeout = 3 * time.Second
	require.NoError(t, config.Save(d.configPath, cfg))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:    d.configPath,
			AllowMultiple: true,
			Player:        d.player,
			Clock:         d.clock,
		})
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", d.addr)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 5*time.Second, 20*time.Millisecond)

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})

	return d
}

// dial connects a client to the daemon.
func (d *daemon) dial(t *testing.T) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), d.addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

// options returns client command options writing to out.
func (d *daemon) options(out *bytes.Buffer) *client.Options {
	return &client.Options{ConfigPath: d.configPath, Out: out}
}

// solve evaluates a challenge expression such as "12 × 7".
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

// TestDaemon_AddListCancel drives the alarm-clock commands against a real daemon.
func TestDaemon_AddListCancel(t *testing.T) {
	d := startDaemon(t, time.Date(2026, time.October, 19, 6, 0, 0, 0, time.Local))
	ctx := context.Background()

	var out bytes.Buffer

	require.NoError(t, client.Add(ctx, d.options(&out), "07:30", "Gym", ""))
	require.Contains(t, out.String(), `Alarm "Gym" set for`)

	out.Reset()
	require.NoError(t, client.List(ctx, d.options(&out)))
	require.Contains(t, out.String(), "Gym")
	require.Contains(t, out.String(), "07:30")
	require.Contains(t, out.String(), "1h30m0s")

	alarms, err := d.dial(t).ListAlarms(ctx)
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	require.Equal(t, "wake.wav", alarms[0].SoundRef)

	out.Reset()
	require.NoError(t, client.Cancel(ctx, d.options(&out), alarms[0].ID))
	require.Equal(t, "Alarm cancelled\n", out.String())

	out.Reset()
	require.NoError(t, client.List(ctx, d.options(&out)))
	require.Equal(t, "No alarms\n", out.String())

	require.Error(t, client.Add(ctx, d.options(&out), "7h30", "", ""))
}

// TestDaemon_RingAndDismiss rings an alarm on the fake clock and solves its challenge.
func TestDaemon_RingAndDismiss(t *testing.T) {
	d := startDaemon(t, time.Date(2026, time.October, 19, 6, 59, 30, 0, time.Local))
	ctx := context.Background()
	c := d.dial(t)

	id, err := c.AddAlarm(ctx, "07:00", "Wake up", "")
	require.NoError(t, err)

	d.clock.Advance(time.Minute)

	require.Eventually(t, func() bool {
		return d.player.Active() == "wake.wav"
	}, 5*time.Second, 20*time.Millisecond)

	alarms, err := c.ListAlarms(ctx)
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	require.Equal(t, domain.StateRinging, alarms[0].State)

	cancelled, err := c.CancelAlarm(ctx, id)
	require.NoError(t, err)
	require.False(t, cancelled)

	view, err := c.StartChallenge(ctx, id)
	require.NoError(t, err)
	require.GreaterOrEqual(t, view.Total, 3)

	for {
		attempt, err := c.SubmitAnswer(ctx, id, strconv.Itoa(solve(t, view.Question)))
		require.NoError(t, err)

		if attempt.Result == challenge.ResultSolved {
			require.Equal(t, domain.StateDismissed, attempt.State)
			break
		}

		require.Equal(t, challenge.ResultAdvance, attempt.Result)
		view = attempt.Next
	}

	require.Empty(t, d.player.Active())

	alarms, err = c.ListAlarms(ctx)
	require.NoError(t, err)
	require.Empty(t, alarms)

	now, err := c.ServerTime(ctx)
	require.NoError(t, err)
	require.True(t, now.Equal(time.Date(2026, time.October, 19, 7, 0, 30, 0, time.Local)))
}
