//go:build windows

// Package service runs the recorder under the Windows Service Control
// Manager. From a terminal the recorder runs in the foreground instead.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
)

const (
	serviceName = "FlightRecorder"
	stopTimeout = 10 * time.Second
)

// RecorderService implements svc.Handler.
type RecorderService struct {
	logger *zap.Logger
	runFn  func(ctx context.Context) error
}

// New creates a service wrapper. runFn is called with a context that is
// cancelled when the SCM requests a stop, and must return once it is.
func New(logger *zap.Logger, runFn func(ctx context.Context) error) *RecorderService {
	return &RecorderService{
		logger: logger,
		runFn:  runFn,
	}
}

// IsWindowsService reports whether the process was started by the SCM.
func IsWindowsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// Run enters the SCM control loop.
func (s *RecorderService) Run() error {
	return svc.Run(serviceName, s)
}

// Execute implements svc.Handler.
func (s *RecorderService) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.runFn(ctx) }()

	changes <- svc.Status{
		State:   svc.Running,
		Accepts: svc.AcceptStop | svc.AcceptShutdown,
	}
	s.logger.Info("Windows service started")

	for {
		select {
		case err := <-done:
			if err != nil {
				s.logger.Error("Recorder exited", zap.Error(err))
				return false, 1
			}
			return false, 0
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				s.logger.Info("Windows service stopping")
				changes <- svc.Status{State: svc.StopPending, WaitHint: uint32(stopTimeout / time.Millisecond)}
				cancel()
				select {
				case <-done:
				case <-time.After(stopTimeout):
					s.logger.Warn("Recorder did not stop in time", zap.Duration("timeout", stopTimeout))
				}
				return false, 0
			default:
				s.logger.Warn("Unexpected service control request",
					zap.Uint32("cmd", uint32(c.Cmd)))
			}
		}
	}
}
