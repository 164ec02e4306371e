package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/bc-dunia/sysprobe/internal/collect"
	"github.com/bc-dunia/sysprobe/internal/config"
	"github.com/bc-dunia/sysprobe/internal/health"
)

// PerformanceOptions are the only client-facing options in the tool set.
// IncludeProcesses defaults to true; skipping process enumeration trades
// detail for latency since it is by far the most expensive sub-query.
type PerformanceOptions struct {
	IncludeProcesses *bool `json:"includeProcesses,omitempty"`
	ProcessLimit     int   `json:"processLimit,omitempty"`
}

func (o PerformanceOptions) includeProcesses() bool {
	return o.IncludeProcesses == nil || *o.IncludeProcesses
}

func (o PerformanceOptions) processLimit() int {
	if o.ProcessLimit <= 0 {
		return config.DefaultProcessLimit
	}
	return o.ProcessLimit
}

// PerformanceData is the performance probe's domain payload.
type PerformanceData struct {
	CPU       collect.CPUDetail     `json:"cpu"`
	Memory    collect.MemoryDetail  `json:"memory"`
	Processes []collect.ProcessInfo `json:"processes,omitempty"`
	// ProcessNote explains a missing process list.
	ProcessNote string `json:"processNote,omitempty"`
}

// Performance inspects CPU, memory, load, and the top processes.
type Performance struct {
	sampleWindow time.Duration

	// Fetchers are swappable for tests.
	fetchCPU       func(ctx context.Context, window time.Duration) collect.CPUDetail
	fetchMemory    func(ctx context.Context) collect.MemoryDetail
	fetchProcesses func(ctx context.Context, limit int) ([]collect.ProcessInfo, error)

	nowFunc func() time.Time
}

// NewPerformance creates the performance probe with OS-backed fetchers.
func NewPerformance() *Performance {
	return &Performance{
		sampleWindow:   config.DefaultCPUSampleWindow,
		fetchCPU:       collect.FetchCPUDetail,
		fetchMemory:    collect.FetchMemoryDetail,
		fetchProcesses: collect.FetchTopProcesses,
		nowFunc:        time.Now,
	}
}

// Run executes the probe. It never fails: unavailable sub-metrics are
// reported explicitly.
func (p *Performance) Run(ctx context.Context, opts PerformanceOptions) *Report {
	data := PerformanceData{
		CPU:    p.fetchCPU(ctx, p.sampleWindow),
		Memory: p.fetchMemory(ctx),
	}

	if opts.includeProcesses() {
		procs, err := p.fetchProcesses(ctx, opts.processLimit())
		if err != nil {
			data.ProcessNote = "process enumeration unavailable: " + err.Error()
		} else {
			data.Processes = procs
		}
	} else {
		data.ProcessNote = "process enumeration skipped by request"
	}

	cpuSeverity := health.Classify(data.CPU.UsagePercent, health.CPUUsageThresholds)
	memSeverity := health.Classify(data.Memory.UsedPercent, health.MemoryThresholds)
	severity := health.MaxSeverity(cpuSeverity, memSeverity)

	report := newReport(health.DomainCPU, p.nowFunc(), severity, data)
	report.ActionableSummary = p.summarize(data, cpuSeverity, memSeverity)
	report.Recommendations = p.recommend(cpuSeverity, memSeverity, data)
	if cpuSeverity >= health.SeverityWarning {
		report.NextStepsToCheck = append(report.NextStepsToCheck, health.ToolThermalStatus)
	}
	return report
}

func (p *Performance) summarize(data PerformanceData, cpuSeverity, memSeverity health.Severity) string {
	switch {
	case cpuSeverity == health.SeverityCritical:
		top := ""
		if len(data.Processes) > 0 {
			top = fmt.Sprintf(", top consumer %s (%.1f%%)", data.Processes[0].Name, data.Processes[0].CPUPercent)
		}
		return fmt.Sprintf("CPU critically loaded at %s%%%s", data.CPU.UsagePercent, top)
	case memSeverity == health.SeverityCritical:
		return fmt.Sprintf("Memory critically full at %s%%", data.Memory.UsedPercent)
	case cpuSeverity == health.SeverityWarning || memSeverity == health.SeverityWarning:
		return fmt.Sprintf("Elevated load: CPU %s%%, memory %s%%", data.CPU.UsagePercent, data.Memory.UsedPercent)
	default:
		return fmt.Sprintf("Performance nominal: CPU %s%%, memory %s%%", data.CPU.UsagePercent, data.Memory.UsedPercent)
	}
}

func (p *Performance) recommend(cpuSeverity, memSeverity health.Severity, data PerformanceData) []string {
	var recs []string
	if cpuSeverity >= health.SeverityWarning && len(data.Processes) > 0 {
		recs = append(recs, fmt.Sprintf("Investigate process %s (pid %d) using %.1f%% CPU",
			data.Processes[0].Name, data.Processes[0].PID, data.Processes[0].CPUPercent))
	}
	if memSeverity >= health.SeverityWarning {
		recs = append(recs, "Close memory-heavy applications or add swap")
	}
	if data.Memory.SwapPercent.Available && data.Memory.SwapPercent.Value > 50 {
		recs = append(recs, fmt.Sprintf("Swap is %.0f%% used; the system is likely paging", data.Memory.SwapPercent.Value))
	}
	return recs
}
