package collect

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// SensorReading is one temperature sensor value in degrees Celsius.
type SensorReading struct {
	Key     string  `json:"key"`
	Celsius float64 `json:"celsius"`
}

// FetchSensors lists every temperature sensor the OS exposes. Many hosts
// (VMs, containers) expose none; that is an empty slice, not an error.
func FetchSensors(ctx context.Context) ([]SensorReading, error) {
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	sensors := make([]SensorReading, 0, len(stats))
	for _, s := range stats {
		if s.Temperature <= 0 {
			continue
		}
		sensors = append(sensors, SensorReading{
			Key:     s.SensorKey,
			Celsius: s.Temperature,
		})
	}
	return sensors, nil
}

// MaxCPUTemperature picks the hottest CPU-related sensor from a listing.
// Falls back to the hottest sensor of any kind when none is CPU-tagged.
func MaxCPUTemperature(sensors []SensorReading) Reading {
	if len(sensors) == 0 {
		return Unavailable("no temperature sensors exposed")
	}

	var maxCPU, maxAny float64
	foundCPU := false
	for _, s := range sensors {
		if s.Celsius > maxAny {
			maxAny = s.Celsius
		}
		key := strings.ToLower(s.Key)
		if strings.Contains(key, "cpu") || strings.Contains(key, "core") ||
			strings.Contains(key, "package") || strings.Contains(key, "k10temp") ||
			strings.Contains(key, "coretemp") {
			foundCPU = true
			if s.Celsius > maxCPU {
				maxCPU = s.Celsius
			}
		}
	}

	if foundCPU {
		return Value(maxCPU)
	}
	return Value(maxAny)
}
