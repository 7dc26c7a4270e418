// Package telemetry defines what the recorder consumes from the vehicle
// link and from an on-board log stream, and provides a simulated vehicle.
package telemetry

import (
	"errors"

	"github.com/vitalis-app/flightrec/internal/models"
)

var (
	// ErrReadConflict reports that the source's values changed while they
	// were being copied. The reading is discarded.
	ErrReadConflict = errors.New("telemetry: values changed during read")

	// ErrSourceClosed reports that the source is gone for good. The
	// recorder worker terminates when it sees it.
	ErrSourceClosed = errors.New("telemetry: source closed")
)

// Source supplies the latest vehicle state.
type Source interface {
	IsConnected() bool
	IsArmed() bool
	IsReplaying() bool
	// CurrentValues returns a copy of the latest key figures.
	CurrentValues() (models.KeyFigures, error)
	// TransferRate returns the link throughput in bytes per second.
	TransferRate() float64
}

// MessageSource is implemented by sources that carry text messages.
type MessageSource interface {
	// LatestMessage returns the message received since the previous call,
	// or nil.
	LatestMessage() *models.LogMessage
}

// FreshnessSource is implemented by sources that can tell whether their
// values changed since they were last read. Sources that don't implement
// it are always considered up to date.
type FreshnessSource interface {
	IsCurrentUpToDate() bool
}

// LogReader supplies records from a log stream streamed off the vehicle.
type LogReader interface {
	IsLogging() bool
	LatestRecord() (models.KeyFigures, error)
	EnableLogging(enabled bool)
}

// Event is an asynchronous change of the link or vehicle state.
type Event int

const (
	EventConnected Event = iota
	EventDisconnected
	EventArmed
	EventDisarmed
	EventReplayStarted
	EventReplayFinished
	EventIMUAvailable
)

func (e Event) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventArmed:
		return "armed"
	case EventDisarmed:
		return "disarmed"
	case EventReplayStarted:
		return "replay-started"
	case EventReplayFinished:
		return "replay-finished"
	case EventIMUAvailable:
		return "imu-available"
	default:
		return "unknown"
	}
}
