package health

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bc-dunia/sysprobe/internal/cache"
	"github.com/bc-dunia/sysprobe/internal/collect"
)

func fixed(v float64) collect.Collector {
	return collect.CollectorFunc(func(context.Context) collect.Reading {
		return collect.Value(v)
	})
}

func fixedSecurity(antivirus, firewall float64) SecurityCollector {
	return SecurityFunc(func(context.Context) collect.SecurityPosture {
		return collect.SecurityPosture{
			Antivirus: collect.Value(antivirus),
			Firewall:  collect.Value(firewall),
		}
	})
}

func testAggregator(t *testing.T, cpu, mem, diskFree float64, avOn, fwOn bool) *Aggregator {
	t.Helper()
	av, fw := 0.0, 0.0
	if avOn {
		av = 1
	}
	if fwOn {
		fw = 1
	}
	return NewAggregator(nil, Collectors{
		CPU:      fixed(cpu),
		Memory:   fixed(mem),
		DiskFree: fixed(diskFree),
		Security: fixedSecurity(av, fw),
	}, cache.New(), nil)
}

func TestAlertsCriticalCPU(t *testing.T) {
	agg := testAggregator(t, 92, 60, 50, true, true)
	report := agg.Alerts(context.Background())

	if len(report.Alerts.Critical) != 1 {
		t.Fatalf("expected 1 critical alert, got %d: %+v", len(report.Alerts.Critical), report.Alerts.Critical)
	}
	if report.Alerts.Critical[0].Domain != DomainCPU {
		t.Errorf("critical alert domain = %s, want cpu", report.Alerts.Critical[0].Domain)
	}
	if report.Score.Value != 85 {
		t.Errorf("score = %d, want 85", report.Score.Value)
	}
	if report.Score.Status != StatusGood {
		t.Errorf("status = %s, want good", report.Score.Status)
	}
	want := []string{ToolPerformanceStats}
	if len(report.Recommendations) != 1 || report.Recommendations[0] != want[0] {
		t.Errorf("recommendations = %v, want %v", report.Recommendations, want)
	}
}

func TestAlertsCriticalDisk(t *testing.T) {
	agg := testAggregator(t, 40, 40, 3, true, true)
	report := agg.Alerts(context.Background())

	if len(report.Alerts.Critical) != 1 {
		t.Fatalf("expected 1 critical alert, got %+v", report.Alerts.Critical)
	}
	if report.Alerts.Critical[0].Domain != DomainDisk {
		t.Errorf("critical alert domain = %s, want disk", report.Alerts.Critical[0].Domain)
	}
	if report.Score.Value != 85 || report.Score.Status != StatusGood {
		t.Errorf("score = %+v, want 85/good", report.Score)
	}
	if len(report.Recommendations) != 1 || report.Recommendations[0] != ToolSystemHealth {
		t.Errorf("recommendations = %v, want [%s]", report.Recommendations, ToolSystemHealth)
	}
}

func TestAlertsEverythingOnFire(t *testing.T) {
	agg := testAggregator(t, 95, 95, 2, false, false)
	report := agg.Alerts(context.Background())

	if len(report.Alerts.Critical) != 5 {
		t.Fatalf("expected 5 critical alerts, got %d: %+v", len(report.Alerts.Critical), report.Alerts.Critical)
	}
	if report.Score.Value != 25 {
		t.Errorf("score = %d, want 25", report.Score.Value)
	}
	if report.Score.Status != StatusCritical {
		t.Errorf("status = %s, want critical", report.Score.Status)
	}
	if len(report.Recommendations) != 2 {
		t.Fatalf("recommendations = %v, want exactly 2", report.Recommendations)
	}
	if report.Recommendations[0] != ToolPerformanceStats || report.Recommendations[1] != ToolSystemHealth {
		t.Errorf("recommendations = %v, want [%s %s]", report.Recommendations, ToolPerformanceStats, ToolSystemHealth)
	}
}

func TestAlertsNominal(t *testing.T) {
	agg := testAggregator(t, 20, 30, 60, true, true)
	report := agg.Alerts(context.Background())

	counts := report.AlertCounts
	if counts.Critical != 0 || counts.Warning != 0 || counts.Info != 0 {
		t.Errorf("expected zero alerts, got %+v", counts)
	}
	if report.Score.Value != 100 || report.Score.Status != StatusGood {
		t.Errorf("score = %+v, want 100/good", report.Score)
	}
	if len(report.Recommendations) != 0 {
		t.Errorf("recommendations = %v, want none", report.Recommendations)
	}
	if !strings.Contains(report.ActionableSummary, "healthy") {
		t.Errorf("summary %q does not state the system is healthy", report.ActionableSummary)
	}
}

func TestAlertsSummaryLeadsWithCriticals(t *testing.T) {
	agg := testAggregator(t, 95, 95, 50, true, true)
	report := agg.Alerts(context.Background())

	if !strings.HasPrefix(report.ActionableSummary, "CRITICAL:") {
		t.Errorf("summary %q does not lead with criticals", report.ActionableSummary)
	}
	if !strings.Contains(report.ActionableSummary, ToolPerformanceStats) {
		t.Errorf("summary %q does not name the recommended probe", report.ActionableSummary)
	}
}

func TestAlertsCacheWithinTTL(t *testing.T) {
	store := cache.New()
	now := time.Unix(1700000000, 0)
	store.SetNowFunc(func() time.Time { return now })

	agg := NewAggregator(nil, Collectors{
		CPU:      fixed(20),
		Memory:   fixed(30),
		DiskFree: fixed(60),
		Security: fixedSecurity(1, 1),
	}, store, nil)
	agg.nowFunc = func() time.Time { return now }

	first := agg.Alerts(context.Background())

	now = now.Add(1 * time.Second)
	second := agg.Alerts(context.Background())

	if first != second {
		t.Fatal("expected the identical cached report within TTL")
	}
	if !first.Timestamp.Equal(second.Timestamp) {
		t.Errorf("cached report timestamp changed: %v vs %v", first.Timestamp, second.Timestamp)
	}

	now = now.Add(3 * time.Second)
	third := agg.Alerts(context.Background())
	if third == first {
		t.Fatal("expected a fresh report after TTL expiry")
	}
	if !third.Timestamp.After(first.Timestamp) {
		t.Errorf("fresh report timestamp %v not after %v", third.Timestamp, first.Timestamp)
	}
}

func TestAlertsConcurrentMissesCoalesce(t *testing.T) {
	var mu sync.Mutex
	computations := 0

	agg := NewAggregator(nil, Collectors{
		CPU: collect.CollectorFunc(func(context.Context) collect.Reading {
			mu.Lock()
			computations++
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			return collect.Value(20)
		}),
		Memory:   fixed(30),
		DiskFree: fixed(60),
		Security: fixedSecurity(1, 1),
	}, cache.New(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Alerts(context.Background())
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if computations != 1 {
		t.Errorf("expected 1 coalesced computation, got %d", computations)
	}
}

func TestAlertsGracefulDegradation(t *testing.T) {
	failing := collect.CollectorFunc(func(context.Context) collect.Reading {
		return collect.Unavailable("permission denied")
	})
	agg := NewAggregator(nil, Collectors{
		CPU:      fixed(20),
		Memory:   fixed(30),
		DiskFree: failing,
		Security: SecurityFunc(func(context.Context) collect.SecurityPosture {
			return collect.SecurityPosture{
				Antivirus: collect.Unavailable("query failed"),
				Firewall:  collect.Value(1),
			}
		}),
	}, cache.New(), nil)

	report := agg.Alerts(context.Background())

	if report == nil {
		t.Fatal("aggregation must always return a report")
	}
	if len(report.Alerts.Critical) != 0 || len(report.Alerts.Warning) != 0 {
		t.Errorf("unavailable collectors must not alert: %+v", report.Alerts)
	}
	if report.Score.Value != 100 {
		t.Errorf("score = %d, want 100 (unavailable domains are neutral)", report.Score.Value)
	}

	found := false
	for _, a := range report.Alerts.Info {
		if a.Domain == DomainDisk && strings.Contains(a.Message, "unavailable") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an info note marking the disk domain unavailable, got %+v", report.Alerts.Info)
	}
}

func TestAlertsHungCollectorTimesOut(t *testing.T) {
	agg := NewAggregator(&AggregatorConfig{
		TTL:              3 * time.Second,
		CollectorTimeout: 50 * time.Millisecond,
	}, Collectors{
		CPU: collect.CollectorFunc(func(ctx context.Context) collect.Reading {
			<-ctx.Done()
			return collect.Unavailable("cancelled")
		}),
		Memory:   fixed(30),
		DiskFree: fixed(60),
		Security: fixedSecurity(1, 1),
	}, cache.New(), nil)

	start := time.Now()
	report := agg.Alerts(context.Background())
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("aggregation blocked for %v on a hung collector", elapsed)
	}
	if report == nil {
		t.Fatal("expected a report despite the hung collector")
	}
}

type recordingTelemetry struct {
	mu          sync.Mutex
	score       int
	scoreSet    bool
	unavailable []string
}

func (r *recordingTelemetry) RecordCollectorUnavailable(_ context.Context, domain string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable = append(r.unavailable, domain)
}

func (r *recordingTelemetry) SetHealthScore(score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.score = score
	r.scoreSet = true
}

func TestAlertsReportsTelemetry(t *testing.T) {
	agg := NewAggregator(nil, Collectors{
		CPU: collect.CollectorFunc(func(context.Context) collect.Reading {
			return collect.Unavailable("permission denied")
		}),
		Memory:   fixed(95),
		DiskFree: fixed(60),
		Security: fixedSecurity(1, 1),
	}, cache.New(), nil)
	rec := &recordingTelemetry{}
	agg.otelM = rec

	report := agg.Alerts(context.Background())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.scoreSet {
		t.Fatal("health score gauge was never set")
	}
	if rec.score != report.Score.Value {
		t.Errorf("recorded score = %d, want %d", rec.score, report.Score.Value)
	}
	if len(rec.unavailable) != 1 || rec.unavailable[0] != DomainCPU {
		t.Errorf("unavailable domains = %v, want [%s]", rec.unavailable, DomainCPU)
	}
}

func TestAlertsFixedCheckOrder(t *testing.T) {
	agg := testAggregator(t, 95, 95, 2, false, false)
	report := agg.Alerts(context.Background())

	wantDomains := []string{DomainCPU, DomainMemory, DomainDisk, DomainSecurity, DomainSecurity}
	if len(report.Alerts.Critical) != len(wantDomains) {
		t.Fatalf("got %d criticals, want %d", len(report.Alerts.Critical), len(wantDomains))
	}
	for i, a := range report.Alerts.Critical {
		if a.Domain != wantDomains[i] {
			t.Errorf("critical[%d].Domain = %s, want %s", i, a.Domain, wantDomains[i])
		}
	}
}
