package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/bc-dunia/sysprobe/internal/collect"
	"github.com/bc-dunia/sysprobe/internal/health"
)

// SystemData is the system health probe's domain payload: storage, security
// posture, and recent system errors.
type SystemData struct {
	Volumes      []collect.VolumeUsage   `json:"volumes"`
	Security     collect.SecurityPosture `json:"security"`
	SystemErrors collect.Reading         `json:"systemErrors24h"`
	// Note explains incomplete volume data.
	Note string `json:"note,omitempty"`
}

// System inspects every mounted volume, the security posture, and the error
// count from the system log.
type System struct {
	fetchVolumes  func(ctx context.Context) ([]collect.VolumeUsage, error)
	fetchSecurity func(ctx context.Context) collect.SecurityPosture
	fetchErrors   collect.Collector
	nowFunc       func() time.Time
}

// NewSystem creates the system health probe with OS-backed readers.
func NewSystem() *System {
	return &System{
		fetchVolumes:  collect.FetchVolumes,
		fetchSecurity: collect.FetchSecurityPosture,
		fetchErrors:   collect.SystemErrorCount(),
		nowFunc:       time.Now,
	}
}

// Run executes the probe. Severity is the pure maximum across every domain
// classification; an error count above the critical threshold escalates the
// whole report.
func (s *System) Run(ctx context.Context) *Report {
	var data SystemData
	severity := health.SeverityInfo
	var recommendations []string

	volumes, err := s.fetchVolumes(ctx)
	if err != nil {
		data.Note = "volume enumeration unavailable: " + err.Error()
	} else {
		data.Volumes = volumes
	}

	worstVolume := ""
	for _, v := range volumes {
		volSeverity := health.Classify(collect.Value(v.FreePercent), health.DiskFreeThresholds)
		if volSeverity >= health.SeverityWarning && worstVolume == "" {
			worstVolume = v.Mountpoint
			recommendations = append(recommendations,
				fmt.Sprintf("Free up space on %s (%.1f%% free)", v.Mountpoint, v.FreePercent))
		}
		severity = severity.Max(volSeverity)
	}

	data.Security = s.fetchSecurity(ctx)
	if data.Security.Antivirus.Available && data.Security.Antivirus.Value == 0 {
		severity = severity.Max(health.SeverityCritical)
		recommendations = append(recommendations, "Enable antivirus protection")
	}
	if data.Security.Firewall.Available && data.Security.Firewall.Value == 0 {
		severity = severity.Max(health.SeverityCritical)
		recommendations = append(recommendations, "Enable the firewall")
	}

	data.SystemErrors = s.fetchErrors.Fetch(ctx)
	errSeverity := health.Classify(data.SystemErrors, health.SystemErrorThresholds)
	severity = severity.Max(errSeverity)
	if errSeverity >= health.SeverityWarning {
		recommendations = append(recommendations,
			fmt.Sprintf("Review the system log: %.0f error entries in the last 24h", data.SystemErrors.Value))
	}

	report := newReport(health.DomainDisk, s.nowFunc(), severity, data)
	report.Recommendations = recommendations

	switch {
	case severity == health.SeverityCritical && worstVolume != "":
		report.ActionableSummary = "Critical: storage nearly full on " + worstVolume
	case severity == health.SeverityCritical:
		report.ActionableSummary = "Critical: security protection is disabled"
	case severity == health.SeverityWarning:
		report.ActionableSummary = "System health degraded; review recommendations"
	default:
		report.ActionableSummary = "Storage, security posture, and system logs look healthy"
	}

	return report
}
