//go:build !windows

// Package service provides a stub implementation for non-Windows platforms.
// On macOS and Linux the recorder runs as a foreground process or under the
// init system, which needs no wrapper.
package service

import (
	"context"

	"go.uber.org/zap"
)

// RecorderService runs the recorder directly on non-Windows platforms.
type RecorderService struct {
	logger *zap.Logger
	runFn  func(ctx context.Context) error
}

// New creates a stub service wrapper.
func New(logger *zap.Logger, runFn func(ctx context.Context) error) *RecorderService {
	return &RecorderService{
		logger: logger,
		runFn:  runFn,
	}
}

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool {
	return false
}

// Run executes the recorder until it returns.
func (s *RecorderService) Run() error {
	return s.runFn(context.Background())
}
