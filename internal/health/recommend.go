package health

import (
	"strings"

	"github.com/bc-dunia/sysprobe/internal/collect"
)

// Deep-probe operation names as exposed to the client. The recommender and
// every probe's nextStepsToCheck use these identifiers.
const (
	ToolHealthAlerts     = "get_health_alerts"
	ToolPerformanceStats = "get_performance_stats"
	ToolBatteryStatus    = "get_battery_status"
	ToolThermalStatus    = "get_thermal_status"
	ToolNetworkStatus    = "get_network_status"
	ToolSystemHealth     = "get_system_health"
	ToolSystemSnapshot   = "get_system_snapshot"
)

// maxRecommendations bounds fan-out from a single triage call. Only two
// probes are ever recommended from the primary path.
const maxRecommendations = 2

// TriageReadings are the raw values the aggregator examined, fed to the
// recommender alongside the derived alerts.
type TriageReadings struct {
	CPUPercent  collect.Reading
	MemPercent  collect.Reading
	DiskFreePct collect.Reading
	Security    collect.SecurityPosture
}

// Recommend produces the ordered, deduplicated list of deep probes worth
// running next. Rules run in a fixed order so ties are deterministic:
//
//  1. cpu or memory above warning          -> performance probe
//  2. disk free below warning              -> system health probe
//  3. critical security alert in the list  -> system health probe (deduped)
func Recommend(readings TriageReadings, alerts AlertList) []string {
	recs := make([]string, 0, maxRecommendations)

	appendOnce := func(tool string) {
		for _, existing := range recs {
			if existing == tool {
				return
			}
		}
		if len(recs) < maxRecommendations {
			recs = append(recs, tool)
		}
	}

	cpuHot := readings.CPUPercent.Available && readings.CPUPercent.Value > CPUUsageThresholds.Warn
	memHot := readings.MemPercent.Available && readings.MemPercent.Value > MemoryThresholds.Warn
	if cpuHot || memHot {
		appendOnce(ToolPerformanceStats)
	}

	if readings.DiskFreePct.Available && readings.DiskFreePct.Value < DiskFreeThresholds.Warn {
		appendOnce(ToolSystemHealth)
	}

	for _, a := range alerts.Critical {
		if a.Domain == DomainSecurity || referencesSecurity(a.Message) {
			appendOnce(ToolSystemHealth)
			break
		}
	}

	return recs
}

func referencesSecurity(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "antivirus") || strings.Contains(m, "firewall") ||
		strings.Contains(m, "defender")
}
