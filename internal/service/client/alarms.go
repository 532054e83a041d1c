package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss/table"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/format"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
	"github.com/oshokin/alarm-clock/internal/service/scheduler"
)

// defaultRetryInterval defines the reconnect delay of Watch.
const defaultRetryInterval = 1 * time.Second

// ErrNothingRinging is returned by Dismiss when no alarm is ringing.
var ErrNothingRinging = errors.New("no alarm is ringing")

// Add schedules an alarm at the next occurrence of timeOfDay (HH:MM).
func Add(ctx context.Context, opts *Options, timeOfDay, label, soundRef string) error {
	client, err := connect(ctx, opts, false)
	if err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "alarm-clock-add")

	defer func() {
		_ = client.Close()
	}()

	id, err := client.AddAlarm(ctx, timeOfDay, label, soundRef)
	if err != nil {
		return err
	}

	alarms, err := client.ListAlarms(ctx)
	if err != nil {
		return err
	}

	for _, a := range alarms {
		if a.ID == id {
			_, err = fmt.Fprintf(opts.output(), "Alarm %q set for %s (%s)\n",
				a.Label, a.Target.Local().Format("Mon 15:04"), id)

			return err
		}
	}

	_, err = fmt.Fprintln(opts.output(), id)

	return err
}

// Cancel cancels a scheduled alarm.
func Cancel(ctx context.Context, opts *Options, id string) error {
	client, err := connect(ctx, opts, false)
	if err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "alarm-clock-cancel")

	defer func() {
		_ = client.Close()
	}()

	cancelled, err := client.CancelAlarm(ctx, id)
	if err != nil {
		return err
	}

	message := "Alarm cancelled"
	if !cancelled {
		message = "Nothing to cancel: the alarm is unknown or already ringing"
	}

	_, err = fmt.Fprintln(opts.output(), message)

	return err
}

// List prints the alarms tracked by the daemon.
func List(ctx context.Context, opts *Options) error {
	client, err := connect(ctx, opts, false)
	if err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "alarm-clock-list")

	defer func() {
		_ = client.Close()
	}()

	alarms, err := client.ListAlarms(ctx)
	if err != nil {
		return err
	}

	if len(alarms) == 0 {
		_, err = fmt.Fprintln(opts.output(), "No alarms")
		return err
	}

	now, err := client.ServerTime(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(opts.output(), renderAlarms(alarms, now))

	return err
}

// renderAlarms lays alarms out as a table.
func renderAlarms(alarms []*domain.Alarm, now time.Time) string {
	t := table.New().Headers("ID", "TIME", "LABEL", "STATE", "IN")

	for _, a := range alarms {
		t.Row(a.ID, format.TimeOfDay(a.Target.Local()), a.Label, string(a.State), until(a, now))
	}

	return t.Render()
}

// until renders how long is left before an alarm rings.
func until(a *domain.Alarm, now time.Time) string {
	if a.State != domain.StateScheduled {
		return "-"
	}

	left := a.Target.Sub(now)
	if left < time.Minute {
		return "<1m"
	}

	return left.Truncate(time.Minute).String()
}

// Watch prints alarm state changes until ctx is done, reconnecting when the stream breaks.
func Watch(ctx context.Context, opts *Options) error {
	client, err := connect(ctx, opts, false)
	if err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "alarm-clock-watch")

	defer func() {
		_ = client.Close()
	}()

	return watchLoop(ctx, client, opts.output(), defaultRetryInterval)
}

// watchLoop streams events and retries after failures.
func watchLoop(ctx context.Context, client *common.Client, out io.Writer, retry time.Duration) error {
	ticker := time.NewTicker(retry)
	defer ticker.Stop()

	for {
		err := client.WatchAlarms(ctx, func(event scheduler.Event) error {
			return printEvent(out, event)
		})
		if err != nil {
			// Log error but continue retrying for transient failures.
			logger.ErrorKV(ctx, "Watching alarms failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// printEvent writes one line per state change.
func printEvent(out io.Writer, event scheduler.Event) error {
	_, err := fmt.Fprintf(out, "%s  %-10s %s %q\n",
		event.At.Local().Format(time.TimeOnly),
		event.Alarm.State,
		format.TimeOfDay(event.Alarm.Target.Local()),
		event.Alarm.Label,
	)

	return err
}
