//go:build darwin

package autostart

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// darwinManager installs a per-user LaunchAgent. Telemetry links are usually
// attached to a logged-in ground station session, so no LaunchDaemon is offered.
type darwinManager struct {
	plistPath string
	logDir    string
}

// New returns a Manager that uses launchd.
func New() Manager {
	home, _ := os.UserHomeDir()
	return &darwinManager{
		plistPath: filepath.Join(home, "Library", "LaunchAgents", serviceLabel+".plist"),
		logDir:    filepath.Join(home, "Library", "Logs", serviceName),
	}
}

func (d *darwinManager) ServiceName() string { return serviceLabel }

func (d *darwinManager) IsInstalled() (bool, error) {
	_, err := os.Stat(d.plistPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking plist file: %w", err)
	}
	return true, nil
}

func (d *darwinManager) Install(execPath string, args ...string) error {
	for _, dir := range []string{d.logDir, filepath.Dir(d.plistPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	plist := renderPlist(execPath, args, d.logDir)
	if err := os.WriteFile(d.plistPath, []byte(plist), 0644); err != nil {
		return fmt.Errorf("creating plist: %w", err)
	}
	if err := exec.Command("launchctl", "load", "-w", d.plistPath).Run(); err != nil {
		return fmt.Errorf("loading plist: %w", err)
	}
	return nil
}

func (d *darwinManager) Uninstall() error {
	_ = exec.Command("launchctl", "unload", d.plistPath).Run()
	if err := os.Remove(d.plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing plist: %w", err)
	}
	return nil
}
