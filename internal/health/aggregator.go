package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bc-dunia/sysprobe/internal/cache"
	"github.com/bc-dunia/sysprobe/internal/collect"
	"github.com/bc-dunia/sysprobe/internal/config"
	"github.com/bc-dunia/sysprobe/internal/events"
	"github.com/bc-dunia/sysprobe/internal/otel"
)

// telemetry is the slice of the OpenTelemetry metrics surface the aggregator
// reports into.
type telemetry interface {
	RecordCollectorUnavailable(ctx context.Context, domain string)
	SetHealthScore(score int)
}

// SecurityCollector is the batched antivirus + firewall quick read.
type SecurityCollector interface {
	Fetch(ctx context.Context) collect.SecurityPosture
}

// SecurityFunc adapts a function to the SecurityCollector interface.
type SecurityFunc func(ctx context.Context) collect.SecurityPosture

func (f SecurityFunc) Fetch(ctx context.Context) collect.SecurityPosture {
	return f(ctx)
}

// Collectors are the cheap readers the triage path fans out over. The
// expensive domains (thermal, network, battery, process enumeration) are
// deliberately excluded; they belong to the deep probes so the primary
// entrypoint stays fast.
type Collectors struct {
	CPU      collect.Collector
	Memory   collect.Collector
	DiskFree collect.Collector
	Security SecurityCollector
}

// DefaultCollectors wires the OS-backed readers for the fixed root volume.
func DefaultCollectors(cpuSampleWindow time.Duration) Collectors {
	return Collectors{
		CPU:      collect.CPUPercent(cpuSampleWindow),
		Memory:   collect.MemoryPercent(),
		DiskFree: collect.DiskFreePercent(collect.RootVolume()),
		Security: SecurityFunc(collect.FetchSecurityPosture),
	}
}

// AggregatorConfig tunes the triage entrypoint.
type AggregatorConfig struct {
	TTL              time.Duration
	CollectorTimeout time.Duration
	CPUSampleWindow  time.Duration
}

// DefaultAggregatorConfig returns the standard TTL and timeouts.
func DefaultAggregatorConfig() *AggregatorConfig {
	return &AggregatorConfig{
		TTL:              config.AlertsCacheTTL,
		CollectorTimeout: config.CollectorTimeout,
		CPUSampleWindow:  config.DefaultCPUSampleWindow,
	}
}

// Aggregator is the primary triage entrypoint behind get_health_alerts.
// It fans out over the cheap collectors, classifies each reading, computes
// the health score and next-step recommendations, and caches the result.
type Aggregator struct {
	cfg        *AggregatorConfig
	collectors Collectors
	store      *cache.Store
	logger     *events.EventLogger
	otelM      telemetry

	// nowFunc is swappable for tests.
	nowFunc func() time.Time
}

// NewAggregator creates an aggregator. A nil config uses defaults; zero-value
// collectors are replaced with the OS-backed defaults.
func NewAggregator(cfg *AggregatorConfig, collectors Collectors, store *cache.Store, logger *events.EventLogger) *Aggregator {
	defaults := DefaultAggregatorConfig()

	if cfg == nil {
		cfg = defaults
	}
	c := *cfg
	if c.TTL <= 0 {
		c.TTL = defaults.TTL
	}
	if c.CollectorTimeout <= 0 {
		c.CollectorTimeout = defaults.CollectorTimeout
	}
	if c.CPUSampleWindow < 0 {
		c.CPUSampleWindow = defaults.CPUSampleWindow
	}

	if collectors.CPU == nil || collectors.Memory == nil || collectors.DiskFree == nil || collectors.Security == nil {
		def := DefaultCollectors(c.CPUSampleWindow)
		if collectors.CPU == nil {
			collectors.CPU = def.CPU
		}
		if collectors.Memory == nil {
			collectors.Memory = def.Memory
		}
		if collectors.DiskFree == nil {
			collectors.DiskFree = def.DiskFree
		}
		if collectors.Security == nil {
			collectors.Security = def.Security
		}
	}

	if store == nil {
		store = cache.New()
	}
	if logger == nil {
		logger = events.NoopEventLogger()
	}

	return &Aggregator{
		cfg:        &c,
		collectors: collectors,
		store:      store,
		logger:     logger,
		otelM:      otel.GetGlobalMetrics(),
		nowFunc:    time.Now,
	}
}

// SetOTelMetrics overrides the OpenTelemetry metrics instance.
func (a *Aggregator) SetOTelMetrics(m *otel.Metrics) {
	if m != nil {
		a.otelM = m
	}
}

// Alerts returns the consolidated triage report. Within the TTL window the
// cached report is returned unmodified, original timestamp included; callers
// that need fresher data wait out the TTL. Concurrent cache misses coalesce
// into a single computation. Alerts never fails: collector errors degrade to
// neutral readings.
func (a *Aggregator) Alerts(ctx context.Context) *Report {
	value, _, _, err := a.store.GetOrCompute(ToolHealthAlerts, a.cfg.TTL, func() (any, error) {
		return a.compute(ctx), nil
	})
	if err != nil {
		// compute never returns an error; keep the boundary total anyway.
		return a.compute(ctx)
	}
	return value.(*Report)
}

func (a *Aggregator) compute(ctx context.Context) *Report {
	started := a.nowFunc()

	var readings TriageReadings
	results := a.fanOut(ctx)
	readings.CPUPercent = results.cpu
	readings.MemPercent = results.memory
	readings.DiskFreePct = results.diskFree
	readings.Security = results.security

	alerts := a.classify(ctx, readings)
	counts := alerts.Counts()
	score := ComputeScore(counts)
	a.otelM.SetHealthScore(score.Value)
	recommendations := Recommend(readings, alerts)

	report := &Report{
		Timestamp:         started,
		Alerts:            alerts,
		AlertCounts:       counts,
		Score:             score,
		Recommendations:   recommendations,
		ActionableSummary: summarize(alerts, score, recommendations),
		CacheInfo: &CacheInfo{
			CachedAt:   started,
			TTLSeconds: a.cfg.TTL.Seconds(),
		},
	}

	a.logger.LogReportComputed(ToolHealthAlerts, score.Value, counts.Critical, counts.Warning,
		a.nowFunc().Sub(started).Milliseconds())
	return report
}

type fanOutResults struct {
	cpu, memory, diskFree collect.Reading
	security              collect.SecurityPosture
}

// fanOut issues the four cheap reads concurrently and blocks until all have
// settled. Each read is individually bounded so one hung OS query cannot
// stall the whole triage call.
func (a *Aggregator) fanOut(ctx context.Context) fanOutResults {
	var results fanOutResults
	timeout := a.cfg.CollectorTimeout

	done := make(chan struct{}, 4)
	go func() {
		results.cpu = collect.WithTimeout(a.collectors.CPU, timeout).Fetch(ctx)
		done <- struct{}{}
	}()
	go func() {
		results.memory = collect.WithTimeout(a.collectors.Memory, timeout).Fetch(ctx)
		done <- struct{}{}
	}()
	go func() {
		results.diskFree = collect.WithTimeout(a.collectors.DiskFree, timeout).Fetch(ctx)
		done <- struct{}{}
	}()
	go func() {
		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		results.security = a.collectors.Security.Fetch(fetchCtx)
		done <- struct{}{}
	}()
	for i := 0; i < 4; i++ {
		<-done
	}
	return results
}

// classify runs the fixed check order: CPU, memory, disk, antivirus,
// firewall. The order is load-bearing: summaries and recommendation
// deduplication rely on it being stable across identical inputs.
func (a *Aggregator) classify(ctx context.Context, r TriageReadings) AlertList {
	var alerts AlertList

	a.classifyUsage(ctx, &alerts, DomainCPU, "CPU usage", r.CPUPercent, CPUUsageThresholds)
	a.classifyUsage(ctx, &alerts, DomainMemory, "Memory usage", r.MemPercent, MemoryThresholds)
	a.classifyDiskFree(ctx, &alerts, r.DiskFreePct)
	a.classifyService(ctx, &alerts, "Antivirus protection", r.Security.Antivirus)
	a.classifyService(ctx, &alerts, "Firewall", r.Security.Firewall)

	return alerts
}

func (a *Aggregator) classifyUsage(ctx context.Context, alerts *AlertList, domain, label string, r collect.Reading, t Thresholds) {
	if !r.Available {
		// Neutral by policy: a missing cheap read must not alert.
		a.logger.LogCollectorUnavailable(domain, r.Reason)
		a.otelM.RecordCollectorUnavailable(ctx, domain)
		alerts.Add(Alert{Severity: SeverityInfo, Domain: domain,
			Message: fmt.Sprintf("%s unavailable (%s)", label, r.Reason)})
		return
	}

	switch Classify(r, t) {
	case SeverityCritical:
		alerts.Add(Alert{Severity: SeverityCritical, Domain: domain,
			Message: fmt.Sprintf("%s critically high at %.1f%%", label, r.Value)})
	case SeverityWarning:
		alerts.Add(Alert{Severity: SeverityWarning, Domain: domain,
			Message: fmt.Sprintf("%s high at %.1f%%", label, r.Value)})
	}
}

func (a *Aggregator) classifyDiskFree(ctx context.Context, alerts *AlertList, r collect.Reading) {
	if !r.Available {
		a.logger.LogCollectorUnavailable(DomainDisk, r.Reason)
		a.otelM.RecordCollectorUnavailable(ctx, DomainDisk)
		alerts.Add(Alert{Severity: SeverityInfo, Domain: DomainDisk,
			Message: fmt.Sprintf("Disk free space unavailable (%s)", r.Reason)})
		return
	}

	switch Classify(r, DiskFreeThresholds) {
	case SeverityCritical:
		alerts.Add(Alert{Severity: SeverityCritical, Domain: DomainDisk,
			Message: fmt.Sprintf("Disk free space critically low at %.1f%% on %s", r.Value, collect.RootVolume())})
	case SeverityWarning:
		alerts.Add(Alert{Severity: SeverityWarning, Domain: DomainDisk,
			Message: fmt.Sprintf("Disk free space low at %.1f%% on %s", r.Value, collect.RootVolume())})
	}
}

// classifyService handles the active/inactive security reads. Inactive is a
// critical finding; unavailable is neutral, never silently critical.
func (a *Aggregator) classifyService(ctx context.Context, alerts *AlertList, label string, r collect.Reading) {
	if !r.Available {
		a.logger.LogCollectorUnavailable(DomainSecurity, r.Reason)
		a.otelM.RecordCollectorUnavailable(ctx, DomainSecurity)
		alerts.Add(Alert{Severity: SeverityInfo, Domain: DomainSecurity,
			Message: fmt.Sprintf("%s state unavailable (%s)", label, r.Reason)})
		return
	}
	if r.Value == 0 {
		alerts.Add(Alert{Severity: SeverityCritical, Domain: DomainSecurity,
			Message: label + " is disabled"})
	}
}

// summarize composes the one-line actionable summary: lead with criticals and
// the recommended probes, else warnings, else a healthy statement with the
// numeric score.
func summarize(alerts AlertList, score Score, recommendations []string) string {
	if len(alerts.Critical) > 0 {
		line := "CRITICAL: " + joinFirst(alerts.Critical, 2)
		if len(recommendations) > 0 {
			line += ". Run " + strings.Join(recommendations, " then ") + " for details"
		}
		return line
	}
	if len(alerts.Warning) > 0 {
		line := "Warning: " + joinFirst(alerts.Warning, 2)
		if len(recommendations) > 0 {
			line += ". Run " + strings.Join(recommendations, " then ") + " for details"
		}
		return line
	}
	return fmt.Sprintf("System healthy, score %d/100. No follow-up needed", score.Value)
}

func joinFirst(alerts []Alert, n int) string {
	if len(alerts) < n {
		n = len(alerts)
	}
	messages := make([]string, 0, n)
	for _, a := range alerts[:n] {
		messages = append(messages, a.Message)
	}
	return strings.Join(messages, "; ")
}
