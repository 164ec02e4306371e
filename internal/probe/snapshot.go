package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/bc-dunia/sysprobe/internal/collect"
	"github.com/bc-dunia/sysprobe/internal/config"
	"github.com/bc-dunia/sysprobe/internal/health"
)

// SnapshotData is the legacy consolidated view: host identity plus the quick
// reads in one document. Kept for clients that predate the triage workflow.
type SnapshotData struct {
	Host        collect.HostInfo        `json:"host"`
	CPUPercent  collect.Reading         `json:"cpuPercent"`
	MemPercent  collect.Reading         `json:"memPercent"`
	DiskFreePct collect.Reading         `json:"diskFreePercent"`
	Security    collect.SecurityPosture `json:"security"`
	// HostNote explains missing host identity.
	HostNote string `json:"hostNote,omitempty"`
}

// Snapshot produces the consolidated legacy report.
type Snapshot struct {
	cpu      collect.Collector
	memory   collect.Collector
	diskFree collect.Collector

	fetchHost     func(ctx context.Context) (collect.HostInfo, error)
	fetchSecurity func(ctx context.Context) collect.SecurityPosture
	nowFunc       func() time.Time
}

// NewSnapshot creates the snapshot probe with OS-backed readers.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		cpu:           collect.CPUPercent(config.DefaultCPUSampleWindow),
		memory:        collect.MemoryPercent(),
		diskFree:      collect.DiskFreePercent(collect.RootVolume()),
		fetchHost:     collect.FetchHostInfo,
		fetchSecurity: collect.FetchSecurityPosture,
		nowFunc:       time.Now,
	}
}

// Run executes the probe.
func (s *Snapshot) Run(ctx context.Context) *Report {
	var data SnapshotData

	if info, err := s.fetchHost(ctx); err == nil {
		data.Host = info
	} else {
		data.HostNote = "host information unavailable: " + err.Error()
	}

	data.CPUPercent = s.cpu.Fetch(ctx)
	data.MemPercent = s.memory.Fetch(ctx)
	data.DiskFreePct = s.diskFree.Fetch(ctx)
	data.Security = s.fetchSecurity(ctx)

	severity := health.MaxSeverity(
		health.Classify(data.CPUPercent, health.CPUUsageThresholds),
		health.Classify(data.MemPercent, health.MemoryThresholds),
		health.Classify(data.DiskFreePct, health.DiskFreeThresholds),
	)

	report := newReport("system", s.nowFunc(), severity, data)
	report.ActionableSummary = fmt.Sprintf("Snapshot of %s: CPU %s%%, memory %s%%, disk free %s%%",
		data.Host.Hostname, data.CPUPercent, data.MemPercent, data.DiskFreePct)
	report.NextStepsToCheck = append(report.NextStepsToCheck, health.ToolHealthAlerts)
	return report
}
