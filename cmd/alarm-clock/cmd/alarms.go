package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/service/client"
)

func newAddCommand() *cobra.Command {
	var label, soundRef string

	command := &cobra.Command{
		Use:   "add HH:MM",
		Short: "Set an alarm for the next occurrence of a time of day.",
		Long: `Sets a one-shot alarm. When the time has already passed today, the alarm
rings tomorrow. An empty label becomes "Alarm"; without --sound the daemon's
default ringtone is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Add(ctx, options(cmd), args[0], label, soundRef)
		},
	}

	command.Flags().StringVarP(&label, "label", "l", "", "alarm label")
	command.Flags().StringVar(&soundRef, "sound", "", "ringtone (.wav)")

	return command
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List alarms.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.List(ctx, options(cmd))
		},
	}
}

func newCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel an alarm that has not rung yet.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Cancel(ctx, options(cmd), args[0])
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print alarm state changes as they happen.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Watch(ctx, options(cmd))
		},
	}
}

func newDismissCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss [ID]",
		Short: "Solve the challenge that silences a ringing alarm.",
		Long: `Asks three or four arithmetic questions. A wrong final answer makes the
alarm ring again with new questions. Without ID the first ringing alarm is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			var id string
			if len(args) > 0 {
				id = args[0]
			}

			return client.Dismiss(ctx, options(cmd), id)
		},
	}
}
