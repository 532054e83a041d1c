package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	// Missing socket.
	require.Error(t, Validate(new(Config)))

	// Bad socket.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	// Bad metrics socket.
	require.Error(t, Validate(&Config{
		ServerAddress:  "127.0.0.1:0",
		MetricsAddress: "nowhere",
	}))

	// Unknown zone.
	require.Error(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		WorldClock:    []City{{Name: "Atlantis", Zone: "Ocean/Atlantis"}},
	}))

	// Unnamed city.
	require.ErrorIs(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		WorldClock:    []City{{Zone: "UTC"}},
	}), errEmptyCity)
}

// TestValidate_Defaults fills every optional field.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	settings := &Config{ServerAddress: "127.0.0.1:0"}
	require.NoError(t, Validate(settings))

	require.Equal(t, DefaultPollInterval, settings.PollInterval)
	require.Equal(t, 16*time.Millisecond, settings.StopwatchRefresh)
	require.Equal(t, time.Second, settings.TimerTick)
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultWorldClock(), settings.WorldClock)
	require.Empty(t, settings.MetricsAddress)

	cfg := New()
	require.Equal(t, DefaultServerAddress, cfg.ServerAddress)
	require.Len(t, cfg.WorldClock, 5)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ServerAddress:  "127.0.0.1:50051",
		MetricsAddress: "127.0.0.1:9090",
		DefaultSound:   "/usr/share/sounds/alarm.wav",
		PollInterval:   500 * time.Millisecond,
		LogLevel:       "debug",
		WorldClock:     []City{{Name: "Paris", Zone: "Europe/Paris"}},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoadOrDefault falls back to defaults only for a missing file.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, New(), cfg)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("server_addr: [\n"), 0o600))

	_, err = LoadOrDefault(broken)
	require.Error(t, err)
}

// TestLoad_PartialFile reads durations written as strings.
func TestLoad_PartialFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := "server_addr: 127.0.0.1:6000\npoll_interval: 250ms\nworld_clock:\n  - city: Berlin\n    zone: Europe/Berlin\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	require.Equal(t, []City{{Name: "Berlin", Zone: "Europe/Berlin"}}, cfg.WorldClock)
	require.Equal(t, DefaultTimerTick, cfg.TimerTick)
}
