package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/client"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// configPath stores the configuration file path.
	configPath string
	// serverAddress overrides the daemon address of the configuration.
	serverAddress string

	// rootCmd represents the base command of the alarm clock client.
	rootCmd = &cobra.Command{
		Use:   "alarm-clock",
		Short: "Manage alarms and run the stopwatch, timer and world clock.",
		Long: `Talks to the alarm clock daemon to add, list and cancel alarms and to dismiss
a ringing alarm by solving a short series of arithmetic questions.

The stopwatch, the countdown timer and the world clock run locally and do not
need the daemon.`,
		SilenceUsage: true,
	}
)

// options builds the shared command options from the persistent flags.
func options(cmd *cobra.Command) *client.Options {
	return &client.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}
}

// signalContext cancels on SIGINT and SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// Execute runs the alarm-clock CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "daemon address, overrides the configuration")

	rootCmd.AddCommand(
		newAddCommand(),
		newListCommand(),
		newCancelCommand(),
		newWatchCommand(),
		newDismissCommand(),
		newStopwatchCommand(),
		newTimerCommand(),
		newWorldCommand(),
	)
}
