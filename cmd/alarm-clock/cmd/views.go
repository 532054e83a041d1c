package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/service/client"
)

func newStopwatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stopwatch",
		Short: "Run a stopwatch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Stopwatch(ctx, options(cmd))
		},
	}
}

func newTimerCommand() *cobra.Command {
	var timerOptions client.TimerOptions

	command := &cobra.Command{
		Use:   "timer",
		Short: "Run a countdown timer.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Timer(ctx, options(cmd), timerOptions)
		},
	}

	command.Flags().StringVar(&timerOptions.SoundRef, "sound", "", "sound played when the time is up (.wav)")

	return command
}

func newWorldCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "world",
		Short: "Show the time in the configured cities.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.World(ctx, options(cmd))
		},
	}
}
