package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vitalis-app/flightrec/internal/autostart"
)

var (
	serviceCmd = &cobra.Command{
		Use:   "service",
		Short: "Manage the boot-time service registration",
	}

	serviceInstallCmd = &cobra.Command{
		Use:   "install",
		Short: "Register and start flightrec with the service manager",
		RunE:  runServiceInstall,
	}

	serviceUninstallCmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the service registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := autostart.New()
			if err := m.Uninstall(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", m.ServiceName())
			return nil
		},
	}

	serviceStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Report whether the service is registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := autostart.New()
			installed, err := m.IsInstalled()
			if err != nil {
				return err
			}
			state := "not installed"
			if installed {
				state = "installed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.ServiceName(), state)
			return nil
		},
	}
)

func init() {
	serviceCmd.AddCommand(serviceInstallCmd, serviceUninstallCmd, serviceStatusCmd)
}

func runServiceInstall(cmd *cobra.Command, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	runArgs := []string{"run"}
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
		runArgs = append(runArgs, "--config", abs)
	}

	m := autostart.New()
	if installed, err := m.IsInstalled(); err != nil {
		return err
	} else if installed {
		return fmt.Errorf("%s is already installed", m.ServiceName())
	}
	if err := m.Install(exe, runArgs...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", m.ServiceName())
	return nil
}
