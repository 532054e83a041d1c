package client

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oshokin/alarm-clock/internal/clock"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/stopwatch"
	"github.com/oshokin/alarm-clock/internal/service/timer"
	"github.com/oshokin/alarm-clock/internal/service/worldclock"
	"github.com/oshokin/alarm-clock/internal/sound"
	"github.com/oshokin/alarm-clock/internal/tui"
)

// Stopwatch runs the stopwatch view.
func Stopwatch(_ context.Context, opts *Options) error {
	cfg, err := loadConfig(opts, true)
	if err != nil {
		return err
	}

	model := tui.NewStopwatchModel(stopwatch.New(clock.System{}), cfg.StopwatchRefresh)

	return runProgram(model, opts)
}

// TimerOptions configures the countdown timer view.
type TimerOptions struct {
	// SoundRef is the expiration sound. Empty uses the configured default sound.
	SoundRef string
}

// Timer runs the countdown timer view.
func Timer(ctx context.Context, opts *Options, timerOpts TimerOptions) error {
	cfg, err := loadConfig(opts, true)
	if err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "alarm-clock-timer")

	soundRef := timerOpts.SoundRef
	if soundRef == "" {
		soundRef = cfg.DefaultSound
	}

	if soundRef != "" {
		if err = sound.ValidateRef(soundRef); err != nil {
			return err
		}
	}

	player := sound.NewExecPlayer()

	defer func() {
		_ = player.Stop()
	}()

	t := timer.New(timer.Options{
		Player:   player,
		SoundRef: soundRef,
		Tick:     cfg.TimerTick,
	})

	return runProgram(tui.NewTimerModel(ctx, t), opts)
}

// World runs the world clock view.
func World(_ context.Context, opts *Options) error {
	cfg, err := loadConfig(opts, true)
	if err != nil {
		return err
	}

	w, err := worldclock.New(clock.System{}, cfg.WorldClock)
	if err != nil {
		return err
	}

	return runProgram(tui.NewWorldClockModel(w), opts)
}

func runProgram(model tea.Model, opts *Options) error {
	if _, err := tea.NewProgram(model, opts.ProgramOptions...).Run(); err != nil {
		return fmt.Errorf("run view: %w", err)
	}

	return nil
}
