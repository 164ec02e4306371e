// Package health implements the alert triage core: severity classification,
// health scoring, next-step recommendation, and the cached aggregation
// entrypoint that ties them together.
package health

import (
	"github.com/bc-dunia/sysprobe/internal/collect"
)

// Severity classifies one alert. The total order is info < warning < critical.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Max returns the higher of two severities.
func (s Severity) Max(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}

// MaxSeverity folds a set of severities to the highest one, with info as the
// identity. Pure reduction, no ordering effects.
func MaxSeverity(severities ...Severity) Severity {
	result := SeverityInfo
	for _, s := range severities {
		result = result.Max(s)
	}
	return result
}

// Direction declares which side of a threshold is unhealthy.
type Direction int

const (
	// Above means larger values are worse (usage, temperature, error counts).
	Above Direction = iota
	// Below means smaller values are worse (free space, battery charge).
	Below
)

// Thresholds is one domain's classification boundaries. Crossing Warn yields
// a warning, crossing Crit a critical. A domain with no critical boundary
// (battery health) sets CritSet false.
type Thresholds struct {
	Warn      float64
	Crit      float64
	CritSet   bool
	Direction Direction
}

// WarnOnly builds thresholds with no critical boundary.
func WarnOnly(warn float64, dir Direction) Thresholds {
	return Thresholds{Warn: warn, Direction: dir}
}

// WarnCrit builds thresholds with both boundaries.
func WarnCrit(warn, crit float64, dir Direction) Thresholds {
	return Thresholds{Warn: warn, Crit: crit, CritSet: true, Direction: dir}
}

// Fixed threshold tables per metric domain.
var (
	CPUUsageThresholds    = WarnCrit(80, 90, Above)
	MemoryThresholds      = WarnCrit(85, 90, Above)
	DiskFreeThresholds    = WarnCrit(20, 5, Below)
	BatteryThresholds     = WarnCrit(25, 10, Below) // charge %, while discharging
	BatteryHealthWarnOnly = WarnOnly(80, Below)
	CPUTempThresholds     = WarnCrit(85, 95, Above)
	SystemErrorThresholds = WarnCrit(5, 10, Above)
)

// Classify maps one reading onto the severity scale. Stateless: the same
// reading always classifies the same way, so a value oscillating around a
// boundary produces correspondingly oscillating results.
//
// Unavailable readings classify as info here; domains that treat missing data
// as a finding (e.g. network enumeration failure) own that policy themselves
// and must not route it through numeric thresholds.
func Classify(r collect.Reading, t Thresholds) Severity {
	if !r.Available {
		return SeverityInfo
	}

	switch t.Direction {
	case Below:
		if t.CritSet && r.Value <= t.Crit {
			return SeverityCritical
		}
		if r.Value <= t.Warn {
			return SeverityWarning
		}
	default: // Above
		if t.CritSet && r.Value >= t.Crit {
			return SeverityCritical
		}
		if r.Value >= t.Warn {
			return SeverityWarning
		}
	}
	return SeverityInfo
}
