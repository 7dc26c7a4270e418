package models

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SamplingInterval is the sampling period in microseconds.
type SamplingInterval int

// Sampling interval presets.
const (
	IntervalDefault   SamplingInterval = 20000
	IntervalHighRes   SamplingInterval = 10000
	IntervalHighSpeed SamplingInterval = 5000
)

var intervalPresets = map[string]SamplingInterval{
	"default":    IntervalDefault,
	"high_res":   IntervalHighRes,
	"high_speed": IntervalHighSpeed,
}

// ParseSamplingInterval accepts a preset name ("default", "high_res",
// "high_speed") or a Go duration string such as "15ms".
func ParseSamplingInterval(s string) (SamplingInterval, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if p, ok := intervalPresets[s]; ok {
		return p, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid sampling interval %q: %w", s, err)
	}
	if d < time.Microsecond {
		return 0, fmt.Errorf("sampling interval %q must be at least 1us", s)
	}
	return SamplingInterval(d / time.Microsecond), nil
}

// Duration converts the interval to a time.Duration.
func (i SamplingInterval) Duration() time.Duration {
	return time.Duration(i) * time.Microsecond
}

// Milliseconds returns the interval in (fractional) milliseconds.
func (i SamplingInterval) Milliseconds() float64 {
	return float64(i) / 1000
}

func (i SamplingInterval) String() string {
	for name, p := range intervalPresets {
		if p == i {
			return name
		}
	}
	return i.Duration().String()
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (i *SamplingInterval) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported sampling interval format: %v", value.Kind)
	}
	parsed, err := ParseSamplingInterval(value.Value)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (i SamplingInterval) MarshalYAML() (interface{}, error) {
	return i.String(), nil
}
