package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseSamplingInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    SamplingInterval
		wantErr bool
	}{
		{in: "default", want: IntervalDefault},
		{in: "high_res", want: IntervalHighRes},
		{in: " HIGH_SPEED ", want: IntervalHighSpeed},
		{in: "15ms", want: 15000},
		{in: "1us", want: 1},
		{in: "500ns", wantErr: true},
		{in: "0s", wantErr: true},
		{in: "-5ms", wantErr: true},
		{in: "fast", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSamplingInterval(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSamplingInterval_String(t *testing.T) {
	assert.Equal(t, "default", IntervalDefault.String())
	assert.Equal(t, "high_speed", IntervalHighSpeed.String())
	assert.Equal(t, "15ms", SamplingInterval(15000).String())
	assert.Equal(t, 15*time.Millisecond, SamplingInterval(15000).Duration())
	assert.InDelta(t, 2.5, SamplingInterval(2500).Milliseconds(), 1e-9)
}

func TestSamplingInterval_YAML(t *testing.T) {
	type doc struct {
		Interval SamplingInterval `yaml:"interval"`
	}
	for _, i := range []SamplingInterval{IntervalHighRes, 15000, 1234} {
		out, err := yaml.Marshal(doc{Interval: i})
		require.NoError(t, err)

		var back doc
		require.NoError(t, yaml.Unmarshal(out, &back))
		assert.Equal(t, i, back.Interval, string(out))
	}

	var bad doc
	assert.Error(t, yaml.Unmarshal([]byte("interval: [1, 2]"), &bad))
}

func TestApplyVirtual(t *testing.T) {
	tests := []struct {
		name   string
		values KeyFigures
		want   KeyFigures
	}{
		{
			name:   "all inputs",
			values: KeyFigures{"vx": 3, "vy": 4, "batteryVoltage": 12, "batteryCurrent": 2},
			want:   KeyFigures{"vx": 3, "vy": 4, "batteryVoltage": 12, "batteryCurrent": 2, KeySpeed: 5, KeyPower: 24},
		},
		{
			name:   "missing velocity component",
			values: KeyFigures{"vx": 3, "batteryVoltage": 12, "batteryCurrent": 2},
			want:   KeyFigures{"vx": 3, "batteryVoltage": 12, "batteryCurrent": 2, KeyPower: 24},
		},
		{
			name:   "no inputs",
			values: KeyFigures{"altitude": 10},
			want:   KeyFigures{"altitude": 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ApplyVirtual(tt.values, DefaultVirtualFigures)
			assert.Equal(t, tt.want, tt.values)
		})
	}
}

func TestApplyVirtual_KeepsStaleValueWhenInputsVanish(t *testing.T) {
	values := KeyFigures{KeySpeed: 7}
	ApplyVirtual(values, DefaultVirtualFigures)
	assert.Equal(t, 7.0, values[KeySpeed])
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	s := NewSnapshot()
	s.Values["altitude"] = 10
	s.Msg = &LogMessage{Text: "takeoff"}
	s.Stamp(1_500_000)

	c := s.Clone()
	c.Values["altitude"] = 20
	c.Msg.Text = "land"

	assert.Equal(t, 10.0, s.Values["altitude"])
	assert.Equal(t, "takeoff", s.Msg.Text)
	assert.Equal(t, int64(1_500_000), c.TimestampUs)
	assert.InDelta(t, 1.5, c.ElapsedSec, 1e-9)
	assert.NotNil(t, KeyFigures(nil).Clone())
}
