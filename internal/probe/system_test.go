package probe

import (
	"context"
	"strings"
	"testing"

	"github.com/bc-dunia/sysprobe/internal/collect"
)

func testSystem(volumes []collect.VolumeUsage, security collect.SecurityPosture, errCount collect.Reading) *System {
	s := NewSystem()
	s.fetchVolumes = func(context.Context) ([]collect.VolumeUsage, error) {
		return volumes, nil
	}
	s.fetchSecurity = func(context.Context) collect.SecurityPosture {
		return security
	}
	s.fetchErrors = collect.CollectorFunc(func(context.Context) collect.Reading {
		return errCount
	})
	return s
}

func healthySecurity() collect.SecurityPosture {
	return collect.SecurityPosture{
		Antivirus: collect.Value(1),
		Firewall:  collect.Value(1),
	}
}

func TestSystemHealthy(t *testing.T) {
	s := testSystem(
		[]collect.VolumeUsage{{Mountpoint: "/", FreePercent: 60}},
		healthySecurity(),
		collect.Value(2),
	)
	report := s.Run(context.Background())

	if report.Severity != "info" {
		t.Errorf("severity = %s, want info", report.Severity)
	}
	if len(report.Recommendations) != 0 {
		t.Errorf("unexpected recommendations: %v", report.Recommendations)
	}
}

func TestSystemLowDiskEscalates(t *testing.T) {
	s := testSystem(
		[]collect.VolumeUsage{
			{Mountpoint: "/", FreePercent: 60},
			{Mountpoint: "/data", FreePercent: 3},
		},
		healthySecurity(),
		collect.Value(0),
	)
	report := s.Run(context.Background())

	if report.Severity != "critical" {
		t.Errorf("severity = %s, want critical", report.Severity)
	}
	if !strings.Contains(report.ActionableSummary, "/data") {
		t.Errorf("summary %q should name the full volume", report.ActionableSummary)
	}
}

func TestSystemSecurityDisabled(t *testing.T) {
	s := testSystem(
		[]collect.VolumeUsage{{Mountpoint: "/", FreePercent: 60}},
		collect.SecurityPosture{Antivirus: collect.Value(0), Firewall: collect.Value(1)},
		collect.Value(0),
	)
	report := s.Run(context.Background())

	if report.Severity != "critical" {
		t.Errorf("severity = %s, want critical", report.Severity)
	}
}

func TestSystemErrorCountEscalation(t *testing.T) {
	tests := []struct {
		name   string
		errors float64
		want   string
	}{
		{"quiet log", 2, "info"},
		{"noisy log", 7, "warning"},
		{"error storm", 25, "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSystem(
				[]collect.VolumeUsage{{Mountpoint: "/", FreePercent: 60}},
				healthySecurity(),
				collect.Value(tt.errors),
			)
			report := s.Run(context.Background())
			if report.Severity != tt.want {
				t.Errorf("severity = %s, want %s", report.Severity, tt.want)
			}
		})
	}
}

// The severity fold is a pure maximum: an error storm escalates the whole
// report even when a lower-severity disk warning is also active.
func TestSystemMaxSeverityFold(t *testing.T) {
	s := testSystem(
		[]collect.VolumeUsage{{Mountpoint: "/", FreePercent: 15}}, // warning
		healthySecurity(),
		collect.Value(50), // critical
	)
	report := s.Run(context.Background())

	if report.Severity != "critical" {
		t.Errorf("severity = %s, want critical (max fold)", report.Severity)
	}
}

func TestSystemUnavailableErrorLogNeutral(t *testing.T) {
	s := testSystem(
		[]collect.VolumeUsage{{Mountpoint: "/", FreePercent: 60}},
		healthySecurity(),
		collect.Unavailable("journal not readable"),
	)
	report := s.Run(context.Background())

	if report.Severity != "info" {
		t.Errorf("severity = %s, want info when the log is unreadable", report.Severity)
	}
}
