package telemetry

import (
	"time"

	"github.com/vitalis-app/flightrec/internal/models"
)

// Telemetry is one decoded reading of the vehicle sensors. Nil fields were
// not part of the reading.
type Telemetry struct {
	Timestamp      time.Time // Timestamp of telemetry measurement
	Altitude       *float64  // Barometric altitude in meters
	Roll           *float64  // Roll angle in degrees
	Pitch          *float64  // Pitch angle in degrees
	Yaw            *float64  // Yaw angle in degrees
	VX             *float64  // North velocity in m/s
	VY             *float64  // East velocity in m/s
	Latitude       *float64  // GPS latitude in degrees
	Longitude      *float64  // GPS longitude in degrees
	BatteryVoltage *float64  // Battery voltage in V
	BatteryCurrent *float64  // Battery current in A
	RadioRSSI      *int64    // Radio link RSSI in dBm
}

// KeyFigures flattens the reading into named key figures, skipping absent
// fields.
func (t *Telemetry) KeyFigures() models.KeyFigures {
	k := make(models.KeyFigures, 12)
	put := func(name string, v *float64) {
		if v != nil {
			k[name] = *v
		}
	}
	put("altitude", t.Altitude)
	put("roll", t.Roll)
	put("pitch", t.Pitch)
	put("yaw", t.Yaw)
	put("vx", t.VX)
	put("vy", t.VY)
	put("latitude", t.Latitude)
	put("longitude", t.Longitude)
	put("batteryVoltage", t.BatteryVoltage)
	put("batteryCurrent", t.BatteryCurrent)
	if t.RadioRSSI != nil {
		k["radioRSSI"] = float64(*t.RadioRSSI)
	}
	return k
}
