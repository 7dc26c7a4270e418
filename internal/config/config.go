// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/vitalis-app/flightrec/internal/models"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "500us", "2s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all recorder configuration.
type Config struct {
	Recording   RecordingConfig   `yaml:"recording"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Listeners   ListenersConfig   `yaml:"listeners"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// RecordingConfig holds sampling and pacing settings.
type RecordingConfig struct {
	Interval         models.SamplingInterval `yaml:"interval"`
	WindowSeconds    int                     `yaml:"window_seconds"`
	StopDelay        Duration                `yaml:"stop_delay"`
	Warmup           Duration                `yaml:"warmup"`
	ProcessingMargin Duration                `yaml:"processing_margin"`
	IdlePark         Duration                `yaml:"idle_park"`
	IdleMargin       Duration                `yaml:"idle_margin"`
}

// DiagnosticsConfig holds host diagnostics polling settings.
type DiagnosticsConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
}

// ListenersConfig holds display refresh settings.
type ListenersConfig struct {
	Cadence        Duration `yaml:"cadence"`
	StatusInterval Duration `yaml:"status_interval"`
}

// SimulationConfig controls the built-in simulated vehicle.
type SimulationConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Armed        bool     `yaml:"armed"`
	ConnectAfter Duration `yaml:"connect_after"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			Interval:         models.IntervalDefault,
			WindowSeconds:    30,
			StopDelay:        Duration{0},
			Warmup:           Duration{600 * time.Millisecond},
			ProcessingMargin: Duration{500 * time.Microsecond},
			IdlePark:         Duration{100 * time.Millisecond},
			IdleMargin:       Duration{2500 * time.Microsecond},
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:  true,
			Interval: Duration{time.Second},
		},
		Listeners: ListenersConfig{
			Cadence:        Duration{5 * time.Millisecond},
			StatusInterval: Duration{5 * time.Second},
		},
		Simulation: SimulationConfig{
			Enabled:      false,
			Armed:        true,
			ConnectAfter: Duration{time.Second},
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	LogLevel      string
	Interval      string
	WindowSeconds int
	Simulate      bool
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.Interval != "" {
		i, err := models.ParseSamplingInterval(cli.Interval)
		if err != nil {
			return nil, fmt.Errorf("--interval: %w", err)
		}
		cfg.Recording.Interval = i
	}
	if cli.WindowSeconds != 0 {
		cfg.Recording.WindowSeconds = cli.WindowSeconds
	}
	if cli.Simulate {
		cfg.Simulation.Enabled = true
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	if level := os.Getenv("FR_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if v := os.Getenv("FR_INTERVAL"); v != "" {
		i, err := models.ParseSamplingInterval(v)
		if err != nil {
			return fmt.Errorf("FR_INTERVAL: %w", err)
		}
		cfg.Recording.Interval = i
	}
	if v := os.Getenv("FR_WINDOW_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FR_WINDOW_SECONDS: %w", err)
		}
		cfg.Recording.WindowSeconds = n
	}
	return nil
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks that every setting is within its allowed range and
// reports all violations at once.
func (c *Config) Validate() error {
	var errs error
	if c.Recording.Interval <= 0 {
		errs = multierr.Append(errs, errors.New("recording.interval must be positive"))
	}
	if c.Recording.WindowSeconds <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("recording.window_seconds must be positive (got: %d)", c.Recording.WindowSeconds))
	}
	if c.Recording.StopDelay.Duration < 0 {
		errs = multierr.Append(errs, errors.New("recording.stop_delay must not be negative"))
	}
	if c.Recording.ProcessingMargin.Duration < 0 || c.Recording.ProcessingMargin.Duration >= c.Recording.Interval.Duration() {
		errs = multierr.Append(errs, fmt.Errorf("recording.processing_margin must be in [0, %s)", c.Recording.Interval))
	}
	if c.Recording.IdlePark.Duration <= c.Recording.IdleMargin.Duration {
		errs = multierr.Append(errs, errors.New("recording.idle_park must exceed recording.idle_margin"))
	}
	if c.Diagnostics.Enabled && c.Diagnostics.Interval.Duration <= 0 {
		errs = multierr.Append(errs, errors.New("diagnostics.interval must be positive"))
	}
	if c.Listeners.Cadence.Duration <= 0 {
		errs = multierr.Append(errs, errors.New("listeners.cadence must be positive"))
	}
	if c.Listeners.StatusInterval.Duration < c.Listeners.Cadence.Duration {
		errs = multierr.Append(errs, fmt.Errorf("listeners.status_interval must be at least listeners.cadence (got: %s)", c.Listeners.StatusInterval))
	}
	if !validLevels[c.Logging.Level] {
		errs = multierr.Append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error (got: %s)", c.Logging.Level))
	}
	return errs
}

// DefaultPath returns the per-user config location, the first one Locate
// searches.
func DefaultPath() string {
	return configSearchPaths()[0]
}
