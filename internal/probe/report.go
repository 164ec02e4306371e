// Package probe implements the deep inspection operations. Each probe is
// domain-scoped, fetches richer (and slower) data than the triage aggregator,
// classifies what it finds, and returns a report in the shared shape.
package probe

import (
	"time"

	"github.com/bc-dunia/sysprobe/internal/health"
)

// Report is the shared envelope every probe returns: a severity-tagged,
// domain-specific result with guidance on what to check next. Immutable after
// construction.
type Report struct {
	Timestamp         time.Time         `json:"timestamp"`
	Domain            string            `json:"domain"`
	Severity          string            `json:"severity"`
	Data              any               `json:"data"`
	ActionableSummary string            `json:"actionableSummary"`
	Recommendations   []string          `json:"recommendations,omitempty"`
	NextStepsToCheck  []string          `json:"nextStepsToCheck,omitempty"`
	CacheInfo         *health.CacheInfo `json:"cacheInfo,omitempty"`
}

func newReport(domain string, at time.Time, severity health.Severity, data any) *Report {
	return &Report{
		Timestamp: at,
		Domain:    domain,
		Severity:  severity.String(),
		Data:      data,
	}
}
