// Package metrics provides Prometheus metrics exposition for sysprobe.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// toolKey is a composite key for per-tool metrics.
type toolKey struct {
	tool   string
	cached bool
}

// histogramData holds summed durations for Prometheus exposition.
type histogramData struct {
	sum   float64
	count int64
}

// Collector collects and exposes sysprobe metrics in Prometheus text format.
// Thread-safe for concurrent access: a single RWMutex serializes writes from
// the tool-call hot path while Expose reads concurrently.
type Collector struct {
	mu sync.RWMutex

	toolCalls     map[toolKey]int64
	toolDurations map[string]*histogramData
	toolErrors    map[string]int64
	sessionsTotal int64

	// Time function for testing
	nowFunc func() time.Time
}

// NewCollector creates a new metrics Collector.
func NewCollector() *Collector {
	return &Collector{
		toolCalls:     make(map[toolKey]int64),
		toolDurations: make(map[string]*histogramData),
		toolErrors:    make(map[string]int64),
		nowFunc:       time.Now,
	}
}

// RecordToolCall records one completed tool invocation.
func (c *Collector) RecordToolCall(tool string, durationMs int64, cached, isError bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toolCalls[toolKey{tool: tool, cached: cached}]++

	if c.toolDurations[tool] == nil {
		c.toolDurations[tool] = &histogramData{}
	}
	c.toolDurations[tool].sum += float64(durationMs) / 1000.0
	c.toolDurations[tool].count++

	if isError {
		c.toolErrors[tool]++
	}
}

// RecordSession records a new MCP session.
func (c *Collector) RecordSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionsTotal++
}

// Expose returns the metrics in Prometheus text exposition format.
func (c *Collector) Expose() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	timestamp := c.nowFunc().UnixMilli()

	c.writeToolCalls(&sb, timestamp)
	c.writeToolDurations(&sb, timestamp)
	c.writeToolErrors(&sb, timestamp)

	sb.WriteString("# HELP sysprobe_sessions_total Total number of MCP sessions created\n")
	sb.WriteString("# TYPE sysprobe_sessions_total counter\n")
	fmt.Fprintf(&sb, "sysprobe_sessions_total %d %d\n", c.sessionsTotal, timestamp)

	return sb.String()
}

func (c *Collector) writeToolCalls(sb *strings.Builder, timestamp int64) {
	sb.WriteString("# HELP sysprobe_tool_calls_total Total number of tool invocations\n")
	sb.WriteString("# TYPE sysprobe_tool_calls_total counter\n")

	// Sort keys for deterministic output
	keys := make([]toolKey, 0, len(c.toolCalls))
	for k := range c.toolCalls {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].tool != keys[j].tool {
			return keys[i].tool < keys[j].tool
		}
		return !keys[i].cached && keys[j].cached
	})

	for _, k := range keys {
		fmt.Fprintf(sb, "sysprobe_tool_calls_total{tool=%q,cached=%q} %d %d\n",
			k.tool, fmt.Sprintf("%t", k.cached), c.toolCalls[k], timestamp)
	}
}

func (c *Collector) writeToolDurations(sb *strings.Builder, timestamp int64) {
	sb.WriteString("# HELP sysprobe_tool_duration_seconds Duration of tool invocations in seconds\n")
	sb.WriteString("# TYPE sysprobe_tool_duration_seconds histogram\n")

	keys := make([]string, 0, len(c.toolDurations))
	for k := range c.toolDurations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, tool := range keys {
		data := c.toolDurations[tool]
		fmt.Fprintf(sb, "sysprobe_tool_duration_seconds_sum{tool=%q} %f %d\n", tool, data.sum, timestamp)
		fmt.Fprintf(sb, "sysprobe_tool_duration_seconds_count{tool=%q} %d %d\n", tool, data.count, timestamp)
	}
}

func (c *Collector) writeToolErrors(sb *strings.Builder, timestamp int64) {
	sb.WriteString("# HELP sysprobe_tool_errors_total Total number of failed tool invocations\n")
	sb.WriteString("# TYPE sysprobe_tool_errors_total counter\n")

	keys := make([]string, 0, len(c.toolErrors))
	for k := range c.toolErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, tool := range keys {
		fmt.Fprintf(sb, "sysprobe_tool_errors_total{tool=%q} %d %d\n", tool, c.toolErrors[tool], timestamp)
	}
}
