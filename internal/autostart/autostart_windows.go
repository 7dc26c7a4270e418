//go:build windows

package autostart

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// The SCM name matches the one the service package registers under.
const scmName = "FlightRecorder"

// windowsManager implements Manager for Windows using the Service Control Manager.
type windowsManager struct{}

// New returns a Manager that uses the Windows Service Control Manager.
func New() Manager {
	return &windowsManager{}
}

// ServiceName returns the Windows service name.
func (w *windowsManager) ServiceName() string { return scmName }

// IsInstalled checks whether the service is registered in the SCM.
func (w *windowsManager) IsInstalled() (bool, error) {
	m, err := mgr.Connect()
	if err != nil {
		return false, fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(scmName)
	if err != nil {
		return false, nil
	}
	s.Close()
	return true, nil
}

// Install creates the Windows service and starts it immediately.
func (w *windowsManager) Install(execPath string, args ...string) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.CreateService(scmName, execPath, mgr.Config{
		DisplayName: serviceDisplay,
		Description: serviceDescription,
		StartType:   mgr.StartAutomatic,
	}, args...)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	return nil
}

// Uninstall stops and deletes the Windows service.
func (w *windowsManager) Uninstall() error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(scmName)
	if err != nil {
		return fmt.Errorf("opening service: %w", err)
	}
	defer s.Close()

	// The service may already be stopped.
	_, _ = s.Control(svc.Stop)
	time.Sleep(2 * time.Second)

	if err := s.Delete(); err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	return nil
}
