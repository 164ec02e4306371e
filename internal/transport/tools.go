package transport

import (
	"encoding/json"

	"github.com/bc-dunia/sysprobe/internal/health"
	"github.com/bc-dunia/sysprobe/internal/types"
	"github.com/bc-dunia/sysprobe/schemas"
)

// toolSpec pairs a tool definition with the schema directory it loads its
// input schema from.
type toolSpec struct {
	name        string
	title       string
	description string
	schemaDir   string
}

var toolSpecs = []toolSpec{
	{
		name:  health.ToolHealthAlerts,
		title: "Health Alerts",
		description: "Fast consolidated triage: classifies CPU, memory, disk, and security " +
			"readings into alerts, computes a health score, and recommends which deeper " +
			"probes to run next. The entry point for health questions.",
		schemaDir: "health-alerts",
	},
	{
		name:  health.ToolPerformanceStats,
		title: "Performance Stats",
		description: "Deep CPU and memory inspection: per-core usage, load averages, swap, " +
			"and the top processes by CPU.",
		schemaDir: "performance-stats",
	},
	{
		name:  health.ToolBatteryStatus,
		title: "Battery Status",
		description: "Battery charge, health, and charging state. Reports cleanly when no " +
			"battery is present.",
		schemaDir: "battery-status",
	},
	{
		name:  health.ToolThermalStatus,
		title: "Thermal Status",
		description: "Temperature sensor readings with the hottest CPU sensor classified " +
			"against thermal thresholds.",
		schemaDir: "thermal-status",
	},
	{
		name:  health.ToolNetworkStatus,
		title: "Network Status",
		description: "Network interfaces, traffic counters, and a basic connectivity check.",
		schemaDir: "network-status",
	},
	{
		name:  health.ToolSystemHealth,
		title: "System Health",
		description: "Disk volumes, security posture, and recent system error counts in one " +
			"report.",
		schemaDir: "system-health",
	},
	{
		name:  health.ToolSystemSnapshot,
		title: "System Snapshot",
		description: "Legacy consolidated snapshot of host info plus quick CPU, memory, disk, " +
			"and security readings. Prefer get_health_alerts for triage.",
		schemaDir: "system-snapshot",
	},
}

func buildToolsList() []types.Tool {
	tools := make([]types.Tool, 0, len(toolSpecs))
	for _, spec := range toolSpecs {
		tools = append(tools, types.Tool{
			Name:        spec.name,
			Title:       spec.title,
			Description: spec.description,
			InputSchema: inputSchema(spec.schemaDir),
			Annotations: &types.ToolAnnotations{
				Title:        spec.title,
				ReadOnlyHint: true,
				// Idempotent within each tool's cache TTL.
				IdempotentHint: true,
			},
		})
	}
	return tools
}

func inputSchema(dir string) json.RawMessage {
	data, err := schemas.FS.ReadFile(dir + "/v1.json")
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return data
}
