// Host CPU temperature collector.
// Uses gopsutil host sensors and reports the hottest CPU reading, which
// represents the worst-case thermal state of the ground station.
package collector

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/vitalis-app/flightrec/internal/models"
)

// Sensor name substrings used to identify CPU temperature sensors across platforms.
// Linux:  coretemp_core_0_input, k10temp_tctl_input, acpitz_temp1_input, zenpower_tctl_input
// macOS:  TC0P (CPU proximity), TC0D (CPU die), TCXC (CPU core)
var cpuSensorKeys = []string{
	"cpu", "core", "package",
	"tctl", "tdie", "k10temp", "coretemp",
	"tc0p", "tc0d", "tcxc",
	"acpitz", "zenpower",
}

// Readings outside (minValidTemp, maxValidTemp] °C are sensor errors.
const (
	minValidTemp = 0.0
	maxValidTemp = 150.0
)

// TemperatureCollector reports the host CPU temperature in °C.
type TemperatureCollector struct {
	logger *zap.Logger
}

// NewTemperatureCollector creates a new temperature collector. Pass nil for
// no logging.
func NewTemperatureCollector(logger *zap.Logger) *TemperatureCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemperatureCollector{logger: logger}
}

// Name returns the collector identifier.
func (c *TemperatureCollector) Name() string { return "temperature" }

// Collect returns the maximum valid CPU sensor reading. Hosts without
// readable sensors yield no key figure rather than an error.
func (c *TemperatureCollector) Collect(ctx context.Context) (models.KeyFigures, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		// gopsutil returns partial readings together with a warning error.
		c.logger.Debug("Temperature sensors partially unavailable", zap.Error(err))
	}

	readings := make(map[string]float64, len(temps))
	for _, t := range temps {
		readings[t.SensorKey] = t.Temperature
	}

	hottest, ok := hottestCPU(readings)
	if !ok {
		c.logger.Debug("No CPU temperature sensor found")
		return models.KeyFigures{}, nil
	}
	return models.KeyFigures{models.KeyHostTemp: hottest}, nil
}

// IsAvailable returns true: always registered; yields nothing if sensors are unavailable.
func (c *TemperatureCollector) IsAvailable() bool { return true }

// hottestCPU returns the highest valid reading among CPU sensors.
func hottestCPU(readings map[string]float64) (float64, bool) {
	var hottest float64
	found := false
	for key, temp := range readings {
		if !isValidTemperature(temp) || !matchesSensor(strings.ToLower(key), cpuSensorKeys) {
			continue
		}
		if !found || temp > hottest {
			hottest, found = temp, true
		}
	}
	return hottest, found
}

// matchesSensor checks if the sensor name contains any of the given key substrings.
func matchesSensor(name string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(name, key) {
			return true
		}
	}
	return false
}

func isValidTemperature(temp float64) bool {
	return temp > minValidTemp && temp <= maxValidTemp
}
