package client

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
)

// Options configures every alarm-clock subcommand.
type Options struct {
	// ConfigPath to YAML settings file. A missing file means defaults.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Out receives command output. Defaults to stdout.
	Out io.Writer
	// ProgramOptions are passed to the terminal views.
	ProgramOptions []tea.ProgramOption
}

// output returns the writer for command output.
func (o *Options) output() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}

	return o.Out
}

// loadConfig reads the settings and applies the server address override.
// Interactive views only log errors so that log lines do not break the screen.
func loadConfig(opts *Options, interactive bool) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.ServerAddress != "" {
		cfg.ServerAddress = opts.ServerAddress
	}

	level := cfg.LogLevel
	if interactive {
		level = "error"
	}

	logger.Setup(level, cfg.LogFile)

	return cfg, nil
}

// connect dials the daemon configured in opts.
func connect(ctx context.Context, opts *Options, interactive bool) (*common.Client, error) {
	cfg, err := loadConfig(opts, interactive)
	if err != nil {
		return nil, err
	}

	clientOptions := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	// Identify current user and hostname for the daemon logs.
	if actor, err := common.DetectActor(); err == nil {
		clientOptions = append(clientOptions, common.WithActor(actor))
	} else {
		logger.DebugKV(ctx, "Unable to detect actor", "error", err)
	}

	client, err := common.Dial(ctx, cfg.ServerAddress, clientOptions...)
	if err != nil {
		return nil, err
	}

	return client, nil
}
