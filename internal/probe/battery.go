package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/bc-dunia/sysprobe/internal/collect"
	"github.com/bc-dunia/sysprobe/internal/health"
)

// Battery inspects charge level, state, and long-term battery health.
type Battery struct {
	fetch   func(ctx context.Context) collect.BatteryStatus
	nowFunc func() time.Time
}

// NewBattery creates the battery probe with the sysfs-backed reader.
func NewBattery() *Battery {
	return &Battery{
		fetch:   collect.FetchBattery,
		nowFunc: time.Now,
	}
}

// Run executes the probe. Hosts without a battery report every field
// unavailable at info severity; that is expected, not an error.
func (b *Battery) Run(ctx context.Context) *Report {
	status := b.fetch(ctx)

	chargeSeverity := health.SeverityInfo
	// Charge thresholds only apply while discharging: a laptop at 8% on AC
	// is not in danger.
	if status.State == "discharging" {
		chargeSeverity = health.Classify(status.ChargePercent, health.BatteryThresholds)
	}
	healthSeverity := health.Classify(status.HealthPercent, health.BatteryHealthWarnOnly)
	severity := health.MaxSeverity(chargeSeverity, healthSeverity)

	report := newReport(health.DomainBattery, b.nowFunc(), severity, status)

	switch {
	case !status.Present:
		report.ActionableSummary = "No battery detected; this host runs on mains power"
	case chargeSeverity == health.SeverityCritical:
		report.ActionableSummary = fmt.Sprintf("Battery critically low at %s%% and discharging; connect power now", status.ChargePercent)
		report.Recommendations = append(report.Recommendations, "Connect the charger immediately")
	case chargeSeverity == health.SeverityWarning:
		report.ActionableSummary = fmt.Sprintf("Battery low at %s%% and discharging", status.ChargePercent)
		report.Recommendations = append(report.Recommendations, "Connect the charger soon")
	case healthSeverity == health.SeverityWarning:
		report.ActionableSummary = fmt.Sprintf("Battery health degraded to %s%% of design capacity", status.HealthPercent)
		report.Recommendations = append(report.Recommendations, "Consider a battery replacement")
	default:
		report.ActionableSummary = fmt.Sprintf("Battery at %s%%, state %s", status.ChargePercent, status.State)
	}

	return report
}
