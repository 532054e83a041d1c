package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // Zones resolve on hosts without a zoneinfo database.

	"gopkg.in/yaml.v3"
)

// City is a world clock entry.
type City struct {
	// Name is the label shown next to the time.
	Name string `yaml:"city"`
	// Zone is the IANA time zone name.
	Zone string `yaml:"zone"`
}

// Config holds the settings shared by the daemon and the command line client.
type Config struct {
	// ServerAddress is the gRPC address of the daemon.
	ServerAddress string `yaml:"server_addr"`
	// MetricsAddress is the address of the Prometheus endpoint. Empty disables it.
	MetricsAddress string `yaml:"metrics_addr,omitempty"`
	// DefaultSound is the ringtone used when an alarm has none.
	DefaultSound string `yaml:"default_sound,omitempty"`
	// PollInterval is how often alarm monitors compare the clock with their target.
	PollInterval time.Duration `yaml:"poll_interval"`
	// StopwatchRefresh is the stopwatch display refresh period.
	StopwatchRefresh time.Duration `yaml:"stopwatch_refresh"`
	// TimerTick is the countdown step of the timer.
	TimerTick time.Duration `yaml:"timer_tick"`
	// LogLevel is one of debug, info, warn and error.
	LogLevel string `yaml:"log_level,omitempty"`
	// LogFile is an optional path for a rotated JSON log.
	LogFile string `yaml:"log_file,omitempty"`
	// WorldClock lists the cities shown by the world clock.
	WorldClock []City `yaml:"world_clock"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarm-clock-settings.yaml"

	// DefaultServerAddress is used by New.
	DefaultServerAddress = "127.0.0.1:50051"

	// DefaultPollInterval is the default alarm monitor period.
	DefaultPollInterval = time.Second

	// DefaultStopwatchRefresh is roughly one display frame at 60 Hz.
	DefaultStopwatchRefresh = 16 * time.Millisecond

	// DefaultTimerTick is the default countdown step.
	DefaultTimerTick = time.Second

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errEmptyCity is returned for a world clock entry without a name.
	errEmptyCity = errors.New("world clock city must have a name")
)

// DefaultWorldClock returns the cities shown when none are configured.
func DefaultWorldClock() []City {
	return []City{
		{Name: "New York", Zone: "America/New_York"},
		{Name: "London", Zone: "Europe/London"},
		{Name: "Tokyo", Zone: "Asia/Tokyo"},
		{Name: "Sydney", Zone: "Australia/Sydney"},
		{Name: "Moscow", Zone: "Europe/Moscow"},
	}
}

// New returns a valid configuration with every default filled in.
func New() *Config {
	cfg := &Config{ServerAddress: DefaultServerAddress}

	//nolint:errcheck // The default address always validates.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault reads the configuration at path, or returns New when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}

	return cfg, err
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics socket: %w", err)
		}
	}

	if settings.PollInterval <= 0 {
		settings.PollInterval = DefaultPollInterval
	}

	if settings.StopwatchRefresh <= 0 {
		settings.StopwatchRefresh = DefaultStopwatchRefresh
	}

	if settings.TimerTick <= 0 {
		settings.TimerTick = DefaultTimerTick
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if len(settings.WorldClock) == 0 {
		settings.WorldClock = DefaultWorldClock()
	}

	for _, city := range settings.WorldClock {
		if city.Name == "" {
			return errEmptyCity
		}

		if _, err := time.LoadLocation(city.Zone); err != nil {
			return fmt.Errorf("world clock city %q: %w", city.Name, err)
		}
	}

	return nil
}
