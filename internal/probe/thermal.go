package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/bc-dunia/sysprobe/internal/cache"
	"github.com/bc-dunia/sysprobe/internal/collect"
	"github.com/bc-dunia/sysprobe/internal/config"
	"github.com/bc-dunia/sysprobe/internal/health"
)

// ThermalData is the thermal probe's domain payload.
type ThermalData struct {
	Sensors []collect.SensorReading `json:"sensors"`
	MaxCPU  collect.Reading         `json:"maxCpuCelsius"`
	// Note explains missing sensor data.
	Note string `json:"note,omitempty"`
}

// Thermal inspects temperature sensors. It keeps its own cache: sensor sweeps
// are slow on some hardware and temperatures move on the order of seconds.
type Thermal struct {
	store *cache.Store
	ttl   time.Duration

	fetch   func(ctx context.Context) ([]collect.SensorReading, error)
	nowFunc func() time.Time
}

// NewThermal creates the thermal probe. A nil store gets a private one.
func NewThermal(store *cache.Store) *Thermal {
	if store == nil {
		store = cache.New()
	}
	return &Thermal{
		store:   store,
		ttl:     config.ThermalCacheTTL,
		fetch:   collect.FetchSensors,
		nowFunc: time.Now,
	}
}

// Run executes the probe, serving from cache within the TTL window.
func (t *Thermal) Run(ctx context.Context) *Report {
	value, _, _, err := t.store.GetOrCompute(health.ToolThermalStatus, t.ttl, func() (any, error) {
		return t.compute(ctx), nil
	})
	if err != nil {
		return t.compute(ctx)
	}
	return value.(*Report)
}

func (t *Thermal) compute(ctx context.Context) *Report {
	var data ThermalData

	sensors, err := t.fetch(ctx)
	if err != nil {
		data.MaxCPU = collect.UnavailableErr(err)
		data.Note = "temperature sensors unavailable: " + err.Error()
	} else {
		data.Sensors = sensors
		data.MaxCPU = collect.MaxCPUTemperature(sensors)
		if len(sensors) == 0 {
			data.Note = "this host exposes no temperature sensors (common on VMs)"
		}
	}

	severity := health.Classify(data.MaxCPU, health.CPUTempThresholds)
	at := t.nowFunc()

	report := newReport(health.DomainThermal, at, severity, data)
	report.CacheInfo = &health.CacheInfo{CachedAt: at, TTLSeconds: t.ttl.Seconds()}

	switch severity {
	case health.SeverityCritical:
		report.ActionableSummary = fmt.Sprintf("CPU temperature critical at %s°C; thermal throttling imminent", data.MaxCPU)
		report.Recommendations = append(report.Recommendations,
			"Check for blocked airflow or failed fans",
			"Reduce sustained CPU load")
		report.NextStepsToCheck = append(report.NextStepsToCheck, health.ToolPerformanceStats)
	case health.SeverityWarning:
		report.ActionableSummary = fmt.Sprintf("CPU temperature elevated at %s°C", data.MaxCPU)
		report.NextStepsToCheck = append(report.NextStepsToCheck, health.ToolPerformanceStats)
	default:
		if data.MaxCPU.Available {
			report.ActionableSummary = fmt.Sprintf("Temperatures nominal, hottest CPU sensor %s°C", data.MaxCPU)
		} else {
			report.ActionableSummary = "Temperature data unavailable on this host"
		}
	}

	return report
}
