package models

import "math"

// VirtualFigure derives a key figure from the other values of a snapshot.
// It returns false when its inputs are missing.
type VirtualFigure struct {
	Name    string
	Compute func(KeyFigures) (float64, bool)
}

// ApplyVirtual evaluates each virtual figure against values and stores the
// results in place.
func ApplyVirtual(values KeyFigures, figures []VirtualFigure) {
	for _, f := range figures {
		if v, ok := f.Compute(values); ok {
			values[f.Name] = v
		}
	}
}

// DefaultVirtualFigures are the derived key figures computed for every
// refreshed or imported snapshot.
var DefaultVirtualFigures = []VirtualFigure{
	{
		Name: KeySpeed,
		Compute: func(k KeyFigures) (float64, bool) {
			vx, okx := k["vx"]
			vy, oky := k["vy"]
			if !okx || !oky {
				return 0, false
			}
			return math.Hypot(vx, vy), true
		},
	},
	{
		Name: KeyPower,
		Compute: func(k KeyFigures) (float64, bool) {
			v, okv := k["batteryVoltage"]
			c, okc := k["batteryCurrent"]
			if !okv || !okc {
				return 0, false
			}
			return v * c, true
		},
	},
}
