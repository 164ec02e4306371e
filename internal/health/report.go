package health

import "time"

// Alert is one classified finding. Immutable once created.
type Alert struct {
	Severity Severity `json:"severity"`
	Domain   string   `json:"domain"`
	Message  string   `json:"message"`
}

// Metric domains used in alert tagging and recommendation rules.
const (
	DomainCPU       = "cpu"
	DomainMemory    = "memory"
	DomainDisk      = "disk"
	DomainBattery   = "battery"
	DomainThermal   = "thermal"
	DomainNetwork   = "network"
	DomainSecurity  = "security"
	DomainSystemLog = "system-log"
)

// AlertList groups alerts by severity, each list preserving the order the
// source checks ran in.
type AlertList struct {
	Critical []Alert `json:"critical"`
	Warning  []Alert `json:"warning"`
	Info     []Alert `json:"info"`
}

// Add appends an alert to the list matching its severity.
func (l *AlertList) Add(a Alert) {
	switch a.Severity {
	case SeverityCritical:
		l.Critical = append(l.Critical, a)
	case SeverityWarning:
		l.Warning = append(l.Warning, a)
	default:
		l.Info = append(l.Info, a)
	}
}

// Counts returns the number of alerts per severity.
func (l *AlertList) Counts() AlertCounts {
	return AlertCounts{
		Critical: len(l.Critical),
		Warning:  len(l.Warning),
		Info:     len(l.Info),
	}
}

// AlertCounts summarizes alert volume per severity.
type AlertCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// CacheInfo records when a report was computed and how long it stays valid.
type CacheInfo struct {
	CachedAt   time.Time `json:"cachedAt"`
	TTLSeconds float64   `json:"ttlSeconds"`
}

// Report is the consolidated triage result returned by the aggregator.
// Immutable after construction; a fresh computation supersedes it whole.
type Report struct {
	Timestamp         time.Time  `json:"timestamp"`
	Alerts            AlertList  `json:"alerts"`
	AlertCounts       AlertCounts `json:"alertCounts"`
	Score             Score      `json:"healthScore"`
	Recommendations   []string   `json:"recommendations"`
	ActionableSummary string     `json:"actionableSummary"`
	CacheInfo         *CacheInfo `json:"cacheInfo,omitempty"`
}
