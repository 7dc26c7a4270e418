package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalis-app/flightrec/internal/models"
)

func TestLoadLayered_CLIOverridesEverything(t *testing.T) {
	embedded := []byte("recording:\n  interval: high_res\n  window_seconds: 10\nlogging:\n  level: warn")
	t.Setenv("FR_INTERVAL", "high_speed")
	t.Setenv("FR_LOG_LEVEL", "error")
	cli := CLIOverrides{LogLevel: "debug", Interval: "15ms", WindowSeconds: 60, Simulate: true}

	cfg, err := LoadLayered(cli, embedded, "")
	require.NoError(t, err)
	assert.Equal(t, models.SamplingInterval(15000), cfg.Recording.Interval)
	assert.Equal(t, 60, cfg.Recording.WindowSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Simulation.Enabled)
}

func TestLoadLayered_EnvOverridesEmbed(t *testing.T) {
	embedded := []byte("recording:\n  interval: high_res\n  window_seconds: 10")
	t.Setenv("FR_INTERVAL", "high_speed")

	cfg, err := LoadLayered(CLIOverrides{}, embedded, "")
	require.NoError(t, err)
	assert.Equal(t, models.IntervalHighSpeed, cfg.Recording.Interval)
	assert.Equal(t, 10, cfg.Recording.WindowSeconds)
}

func TestLoadLayered_FileOverridesEmbed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recording:\n  stop_delay: 2s\n"), 0600))

	cfg, err := LoadLayered(CLIOverrides{}, []byte("recording:\n  stop_delay: 1s\n  window_seconds: 12"), path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Recording.StopDelay.Duration)
	assert.Equal(t, 12, cfg.Recording.WindowSeconds)
}

func TestLoadLayered_DefaultsWhenEmpty(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, models.IntervalDefault, cfg.Recording.Interval)
	assert.Equal(t, 30, cfg.Recording.WindowSeconds)
	assert.Equal(t, 5*time.Millisecond, cfg.Listeners.Cadence.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestLoadLayered_RejectsBadValues(t *testing.T) {
	_, err := LoadLayered(CLIOverrides{Interval: "fast"}, nil, "")
	assert.Error(t, err)

	t.Setenv("FR_WINDOW_SECONDS", "thirty")
	_, err = LoadLayered(CLIOverrides{}, nil, "")
	assert.ErrorContains(t, err, "FR_WINDOW_SECONDS")
}

func TestLoadLayered_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, nil, filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadLayered_ParsesDurations(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, []byte("recording:\n  processing_margin: 250us\n  interval: 8ms"), "")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Microsecond, cfg.Recording.ProcessingMargin.Duration)
	assert.Equal(t, models.SamplingInterval(8000), cfg.Recording.Interval)

	_, err = LoadLayered(CLIOverrides{}, []byte("recording:\n  warmup: soon"), "")
	assert.Error(t, err)
}

func TestValidate_StatusIntervalBelowCadence(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second, time.Millisecond} {
		cfg := DefaultConfig()
		cfg.Listeners.StatusInterval = Duration{d}
		err := cfg.Validate()
		require.Error(t, err, d.String())
		assert.Contains(t, err.Error(), "listeners.status_interval")
	}

	cfg := DefaultConfig()
	cfg.Listeners.StatusInterval = cfg.Listeners.Cadence
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recording.WindowSeconds = 0
	cfg.Listeners.Cadence = Duration{0}
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "window_seconds")
	assert.ErrorContains(t, err, "cadence")
	assert.ErrorContains(t, err, "logging.level")
}

func TestWriteConfig_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Recording.Interval = models.IntervalHighRes
	cfg.Simulation.Enabled = true
	require.NoError(t, WriteConfig(cfg, path))

	loaded, err := LoadLayered(CLIOverrides{}, nil, path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
