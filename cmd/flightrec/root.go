package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitalis-app/flightrec/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	logLevel   string

	interval      string
	windowSeconds int
	simulate      bool

	rootCmd = &cobra.Command{
		Use:   "flightrec",
		Short: "Vehicle telemetry recorder",
		Long: `flightrec converts a live telemetry stream into an ordered, timestamped
timeline of key-figure snapshots.

Examples:
  flightrec                              # Record with the default configuration
  flightrec run --interval high_speed    # Sample every 5ms
  flightrec run --simulate --window 10   # Record the built-in simulated vehicle
  flightrec config init                  # Write the default configuration file`,
		SilenceUsage: true,
		RunE:         runRecorderCmd,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the recorder until interrupted",
		RunE:  runRecorderCmd,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flightrec %s\n", version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to configuration file (default: auto-discover)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")

	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().StringVar(&interval, "interval", "",
			"Sampling interval (default, high_res, high_speed or a duration such as 15ms)")
		cmd.Flags().IntVar(&windowSeconds, "window", 0,
			"Display window in seconds")
		cmd.Flags().BoolVar(&simulate, "simulate", false,
			"Record the built-in simulated vehicle")
	}

	rootCmd.AddCommand(runCmd, versionCmd, configCmd, serviceCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig applies the full precedence chain for the current flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cli := config.CLIOverrides{
		LogLevel:      logLevel,
		Interval:      interval,
		WindowSeconds: windowSeconds,
		Simulate:      simulate,
	}

	var cfg *config.Config
	var err error
	if cmd.Flags().Changed("config") {
		cfg, err = config.LoadLayered(cli, embeddedConfig, configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
