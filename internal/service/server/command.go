package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/mitchellh/go-ps"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/alarm-clock/internal/api/grpc/alarmclock"
	"github.com/oshokin/alarm-clock/internal/clock"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/metrics"
	"github.com/oshokin/alarm-clock/internal/service/scheduler"
	"github.com/oshokin/alarm-clock/internal/sound"
	"github.com/oshokin/alarm-clock/internal/version"
)

// Options controls the alarm-clockd process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file. A missing file means defaults.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// MetricsAddress overrides the metrics address of the configuration.
	MetricsAddress string
	// DefaultSound overrides the default ringtone of the configuration.
	DefaultSound string
	// LogLevel overrides the log level of the configuration.
	LogLevel string
	// AllowMultiple skips the single instance check.
	AllowMultiple bool
	// Player plays the alarm sounds. Nil uses the platform player.
	Player sound.Player
	// Clock drives the alarm monitors. Nil uses the system clock.
	Clock clock.Clock
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the daemon and blocks until context is canceled or a server stops.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyOverrides(settings, opts)

	logger.Setup(settings.LogLevel, settings.LogFile)
	defer logger.Sync()

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-clockd")

	if !opts.AllowMultiple {
		if err = ensureSingleInstance(ps.Processes); err != nil {
			return err
		}
	}

	if settings.DefaultSound != "" {
		if err = sound.ValidateRef(settings.DefaultSound); err != nil {
			logger.WarnKV(ctx, "Default sound is unusable, alarms without a sound stay silent",
				"sound", settings.DefaultSound, "error", err)
		}
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	player := opts.Player
	if player == nil {
		player = sound.NewExecPlayer()
	}

	registry := scheduler.New(ctx, scheduler.Options{
		Clock:        opts.Clock,
		Player:       player,
		PollInterval: settings.PollInterval,
		DefaultSound: settings.DefaultSound,
	})
	defer registry.Close()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	var metricsLis net.Listener

	if settings.MetricsAddress != "" {
		metricsLis, err = lc.Listen(ctx, "tcp", settings.MetricsAddress)
		if err != nil {
			_ = lis.Close()

			return fmt.Errorf("listen on %s: %w", settings.MetricsAddress, err)
		}
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(api.UnaryActorInterceptor))
	api.NewServer(registry, api.WithClock(opts.Clock)).Register(grpcServer)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.InfoKV(ctx, "Alarm daemon listening",
			"listen_address", lis.Addr().String(),
			"poll_interval", settings.PollInterval,
			"version", version.Short(),
			"commit", version.Revision(),
		)

		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down gRPC server")

		// Watch streams end once the registry closes its subscribers.
		registry.Close()
		grpcServer.GracefulStop()

		return nil
	})

	if metricsLis != nil {
		group.Go(func() error {
			return metrics.NewServer(settings.MetricsAddress).Run(groupCtx, metricsLis)
		})
	}

	err = group.Wait()

	logger.Info(ctx, "Alarm daemon stopped")

	return err
}

// applyOverrides copies non-empty command line values over the configuration.
func applyOverrides(settings *config.Config, opts *Options) {
	if opts.MetricsAddress != "" {
		settings.MetricsAddress = opts.MetricsAddress
	}

	if opts.DefaultSound != "" {
		settings.DefaultSound = opts.DefaultSound
	}

	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise the configured address is used as is.
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	if _, _, err := net.SplitHostPort(configAddr); err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return configAddr, nil
}
