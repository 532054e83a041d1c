package client

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/tui"
)

// Dismiss runs the challenge of a ringing alarm. With an empty id the first
// ringing alarm is used.
func Dismiss(ctx context.Context, opts *Options, id string) error {
	client, err := connect(ctx, opts, true)
	if err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "alarm-clock-dismiss")

	defer func() {
		_ = client.Close()
	}()

	alarms, err := client.ListAlarms(ctx)
	if err != nil {
		return err
	}

	target, err := pickRinging(alarms, id)
	if err != nil {
		return err
	}

	model := tui.NewChallengeModel(ctx, client, target.ID, target.Label)

	final, err := tea.NewProgram(model, opts.ProgramOptions...).Run()
	if err != nil {
		return fmt.Errorf("run challenge: %w", err)
	}

	if result, ok := final.(tui.ChallengeModel); ok && result.Err() != nil {
		return result.Err()
	}

	return nil
}

// pickRinging returns the alarm with the provided id, or the first active one when id is empty.
func pickRinging(alarms []*domain.Alarm, id string) (*domain.Alarm, error) {
	for _, a := range alarms {
		if id != "" && a.ID != id {
			continue
		}

		if a.State.Active() {
			return a, nil
		}

		if id != "" {
			return nil, fmt.Errorf("alarm %s is %s: %w", id, a.State, ErrNothingRinging)
		}
	}

	if id != "" {
		return nil, fmt.Errorf("alarm %s: %w", id, ErrNothingRinging)
	}

	return nil, ErrNothingRinging
}
