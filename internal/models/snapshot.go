// Package models defines the key-figure data structures shared by the
// recorder, its telemetry sources and its consumers.
package models

import (
	"maps"
	"time"
)

// Key figures produced by the recorder rather than the vehicle.
const (
	KeyTransferRate = "GCLNET"      // telemetry link rate in kB/s
	KeyConversion   = "GCLACC"      // ms between the last two converted snapshots
	KeyHostCPU      = "GCLCPU"      // host CPU usage in percent
	KeyHostMemory   = "GCLMEM"      // host memory usage in percent
	KeyHostRx       = "GCLHOSTRX"   // host network receive rate in B/s
	KeyHostTx       = "GCLHOSTTX"   // host network transmit rate in B/s
	KeyHostDisk     = "GCLDISK"     // used space of the output volume in percent
	KeyHostTemp     = "GCLHOSTTEMP" // host CPU temperature in °C
	KeySpeed        = "GCLSPEED"    // ground speed in m/s
	KeyPower        = "GCLPOWER"    // battery power in W
)

// KeyFigures maps a key-figure name to its scalar value.
type KeyFigures map[string]float64

// Clone returns an independent copy. A nil map clones to an empty map.
func (k KeyFigures) Clone() KeyFigures {
	if k == nil {
		return make(KeyFigures)
	}
	return maps.Clone(k)
}

// LogMessage is a vehicle or ground-station text message attached to the
// snapshot of the tick in which it was received.
type LogMessage struct {
	Text      string    `json:"text"`
	Severity  int       `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is one timestamped bundle of key-figure values.
//
// Snapshots stored in a timeline are never modified after they were
// appended; callers must treat Values as read-only.
type Snapshot struct {
	TimestampUs int64       `json:"tms"`
	ElapsedSec  float64     `json:"dt_sec"`
	Values      KeyFigures  `json:"values"`
	Msg         *LogMessage `json:"msg,omitempty"`
}

// NewSnapshot returns an empty snapshot ready for use.
func NewSnapshot() Snapshot {
	return Snapshot{Values: make(KeyFigures)}
}

// Clone returns a deep copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{
		TimestampUs: s.TimestampUs,
		ElapsedSec:  s.ElapsedSec,
		Values:      s.Values.Clone(),
	}
	if s.Msg != nil {
		m := *s.Msg
		c.Msg = &m
	}
	return c
}

// Value returns the named key figure and whether it is present.
func (s Snapshot) Value(name string) (float64, bool) {
	v, ok := s.Values[name]
	return v, ok
}

// Stamp sets the elapsed time of the snapshot relative to the collection origin.
func (s *Snapshot) Stamp(elapsedUs int64) {
	s.TimestampUs = elapsedUs
	s.ElapsedSec = float64(elapsedUs) / 1e6
}
