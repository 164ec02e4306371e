package metrics

import (
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestCollectorEmpty(t *testing.T) {
	c := NewCollector()
	c.nowFunc = fixedNow

	out := c.Expose()

	for _, want := range []string{
		"# HELP sysprobe_tool_calls_total",
		"# TYPE sysprobe_tool_calls_total counter",
		"# HELP sysprobe_tool_duration_seconds",
		"# TYPE sysprobe_tool_duration_seconds histogram",
		"# HELP sysprobe_tool_errors_total",
		"# HELP sysprobe_sessions_total",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expose() missing %q", want)
		}
	}
	if !strings.Contains(out, "sysprobe_sessions_total 0") {
		t.Errorf("Expose() should report zero sessions, got:\n%s", out)
	}
}

func TestCollectorRecordToolCall(t *testing.T) {
	c := NewCollector()
	c.nowFunc = fixedNow

	c.RecordToolCall("get_health_alerts", 120, false, false)
	c.RecordToolCall("get_health_alerts", 2, true, false)
	c.RecordToolCall("get_health_alerts", 2, true, false)
	c.RecordToolCall("get_battery_status", 40, false, true)

	out := c.Expose()

	if !strings.Contains(out, `sysprobe_tool_calls_total{tool="get_health_alerts",cached="false"} 1`) {
		t.Errorf("missing uncached alerts count, got:\n%s", out)
	}
	if !strings.Contains(out, `sysprobe_tool_calls_total{tool="get_health_alerts",cached="true"} 2`) {
		t.Errorf("missing cached alerts count, got:\n%s", out)
	}
	if !strings.Contains(out, `sysprobe_tool_duration_seconds_count{tool="get_health_alerts"} 3`) {
		t.Errorf("missing duration count, got:\n%s", out)
	}
	if !strings.Contains(out, `sysprobe_tool_errors_total{tool="get_battery_status"} 1`) {
		t.Errorf("missing error count, got:\n%s", out)
	}
	if strings.Contains(out, `sysprobe_tool_errors_total{tool="get_health_alerts"}`) {
		t.Errorf("alerts tool had no errors, got:\n%s", out)
	}
}

func TestCollectorDurationSum(t *testing.T) {
	c := NewCollector()
	c.nowFunc = fixedNow

	c.RecordToolCall("get_thermal_status", 500, false, false)
	c.RecordToolCall("get_thermal_status", 1500, false, false)

	out := c.Expose()
	if !strings.Contains(out, `sysprobe_tool_duration_seconds_sum{tool="get_thermal_status"} 2.0`) {
		t.Errorf("durations should sum to 2 seconds, got:\n%s", out)
	}
}

func TestCollectorSortedOutput(t *testing.T) {
	c := NewCollector()
	c.nowFunc = fixedNow

	c.RecordToolCall("get_system_health", 10, false, false)
	c.RecordToolCall("get_battery_status", 10, false, false)
	c.RecordToolCall("get_health_alerts", 10, false, false)

	out := c.Expose()
	battery := strings.Index(out, `tool="get_battery_status",cached`)
	alerts := strings.Index(out, `tool="get_health_alerts",cached`)
	system := strings.Index(out, `tool="get_system_health",cached`)
	if battery == -1 || alerts == -1 || system == -1 {
		t.Fatalf("missing tool entries, got:\n%s", out)
	}
	if !(battery < alerts && alerts < system) {
		t.Errorf("tool entries not sorted: battery=%d alerts=%d system=%d", battery, alerts, system)
	}
}

func TestCollectorSessions(t *testing.T) {
	c := NewCollector()
	c.nowFunc = fixedNow

	c.RecordSession()
	c.RecordSession()

	if !strings.Contains(c.Expose(), "sysprobe_sessions_total 2") {
		t.Errorf("expected 2 sessions, got:\n%s", c.Expose())
	}
}

func TestCollectorConcurrentAccess(t *testing.T) {
	c := NewCollector()
	c.nowFunc = fixedNow

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				c.RecordToolCall("get_health_alerts", 5, false, false)
				_ = c.Expose()
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	if !strings.Contains(c.Expose(), `sysprobe_tool_calls_total{tool="get_health_alerts",cached="false"} 400`) {
		t.Errorf("expected 400 calls, got:\n%s", c.Expose())
	}
}
