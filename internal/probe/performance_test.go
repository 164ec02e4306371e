package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bc-dunia/sysprobe/internal/collect"
	"github.com/bc-dunia/sysprobe/internal/health"
)

func testPerformance(cpuPct, memPct float64, procs []collect.ProcessInfo, procErr error) *Performance {
	p := NewPerformance()
	p.fetchCPU = func(context.Context, time.Duration) collect.CPUDetail {
		return collect.CPUDetail{UsagePercent: collect.Value(cpuPct)}
	}
	p.fetchMemory = func(context.Context) collect.MemoryDetail {
		return collect.MemoryDetail{UsedPercent: collect.Value(memPct)}
	}
	p.fetchProcesses = func(_ context.Context, limit int) ([]collect.ProcessInfo, error) {
		if procErr != nil {
			return nil, procErr
		}
		if len(procs) > limit {
			return procs[:limit], nil
		}
		return procs, nil
	}
	return p
}

func TestPerformanceNominal(t *testing.T) {
	p := testPerformance(20, 30, []collect.ProcessInfo{{PID: 1, Name: "init", CPUPercent: 0.1}}, nil)
	report := p.Run(context.Background(), PerformanceOptions{})

	if report.Severity != "info" {
		t.Errorf("severity = %s, want info", report.Severity)
	}
	data := report.Data.(PerformanceData)
	if len(data.Processes) != 1 {
		t.Errorf("expected process list by default, got %+v", data)
	}
}

func TestPerformanceSkipProcesses(t *testing.T) {
	called := false
	p := testPerformance(20, 30, nil, nil)
	p.fetchProcesses = func(context.Context, int) ([]collect.ProcessInfo, error) {
		called = true
		return nil, nil
	}

	skip := false
	report := p.Run(context.Background(), PerformanceOptions{IncludeProcesses: &skip})

	if called {
		t.Error("process enumeration ran despite includeProcesses=false")
	}
	data := report.Data.(PerformanceData)
	if !strings.Contains(data.ProcessNote, "skipped") {
		t.Errorf("expected a skip note, got %q", data.ProcessNote)
	}
}

func TestPerformanceProcessLimit(t *testing.T) {
	procs := make([]collect.ProcessInfo, 10)
	for i := range procs {
		procs[i] = collect.ProcessInfo{PID: int32(i), Name: "p", CPUPercent: float64(10 - i)}
	}
	p := testPerformance(20, 30, procs, nil)

	report := p.Run(context.Background(), PerformanceOptions{ProcessLimit: 3})
	data := report.Data.(PerformanceData)
	if len(data.Processes) != 3 {
		t.Errorf("got %d processes, want 3", len(data.Processes))
	}

	report = p.Run(context.Background(), PerformanceOptions{})
	data = report.Data.(PerformanceData)
	if len(data.Processes) != 5 {
		t.Errorf("got %d processes with default limit, want 5", len(data.Processes))
	}
}

func TestPerformanceCriticalCPU(t *testing.T) {
	p := testPerformance(95, 30, []collect.ProcessInfo{{PID: 42, Name: "miner", CPUPercent: 88}}, nil)
	report := p.Run(context.Background(), PerformanceOptions{})

	if report.Severity != "critical" {
		t.Errorf("severity = %s, want critical", report.Severity)
	}
	if !strings.Contains(report.ActionableSummary, "miner") {
		t.Errorf("summary %q should name the top consumer", report.ActionableSummary)
	}
	foundThermal := false
	for _, step := range report.NextStepsToCheck {
		if step == health.ToolThermalStatus {
			foundThermal = true
		}
	}
	if !foundThermal {
		t.Errorf("critical CPU should point at the thermal probe, got %v", report.NextStepsToCheck)
	}
}

func TestPerformanceProcessEnumerationFailure(t *testing.T) {
	p := testPerformance(20, 30, nil, errors.New("access denied"))
	report := p.Run(context.Background(), PerformanceOptions{})

	if report == nil {
		t.Fatal("probe must not fail on process enumeration errors")
	}
	data := report.Data.(PerformanceData)
	if !strings.Contains(data.ProcessNote, "unavailable") {
		t.Errorf("expected an unavailability note, got %q", data.ProcessNote)
	}
	if report.Severity == "critical" {
		t.Error("enumeration failure must not be silently critical")
	}
}
