package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/server"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// metricsAddress overrides the Prometheus endpoint address.
	metricsAddress string
	// defaultSound overrides the default ringtone.
	defaultSound string
	// logLevel overrides the configured log level.
	logLevel string
	// allowMultiple disables the single instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the daemon.
	rootCmd = &cobra.Command{
		Use:   "alarm-clockd [listen-address]",
		Short: "Run the alarm clock daemon.",
		Long: `Starts the alarm clock daemon that keeps alarms, rings them and serves the gRPC API.

The daemon listens on server_addr from the configuration file unless a listen
address is given as argument (e.g., :50051, 127.0.0.1:6000).
Alarms live in memory only and are lost when the daemon stops.
Only one daemon may run on a host; use --allow-multiple to override.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:     configPath,
				ListenAddress:  listenAddress,
				MetricsAddress: metricsAddress,
				DefaultSound:   defaultSound,
				LogLevel:       logLevel,
				AllowMultiple:  allowMultiple,
			})
		},
	}
)

// Execute runs the alarm-clockd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&metricsAddress, "metrics", "m", "", "address of the Prometheus endpoint")
	rootCmd.Flags().StringVar(&defaultSound, "sound", "", "default ringtone (.wav)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single instance check")
}
