package collect

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
)

// CPUPercent returns overall CPU utilisation sampled over the given interval.
// A zero interval asks gopsutil for the delta since the previous call, which
// keeps the quick triage path cheap.
func CPUPercent(interval time.Duration) Collector {
	return CollectorFunc(func(ctx context.Context) Reading {
		percentages, err := cpu.PercentWithContext(ctx, interval, false)
		if err != nil {
			return UnavailableErr(err)
		}
		if len(percentages) == 0 {
			return Unavailable("no cpu sample")
		}
		return Value(percentages[0])
	})
}

// CPUDetail is the richer CPU data used by the performance probe.
type CPUDetail struct {
	UsagePercent Reading   `json:"usagePercent"`
	PerCore      []float64 `json:"perCore,omitempty"`
	LogicalCores int       `json:"logicalCores"`
	ModelName    string    `json:"modelName,omitempty"`
	Load1        Reading   `json:"load1"`
	Load5        Reading   `json:"load5"`
	Load15       Reading   `json:"load15"`
}

// FetchCPUDetail gathers per-core usage, core count, model, and load averages.
// Each sub-metric degrades independently.
func FetchCPUDetail(ctx context.Context, interval time.Duration) CPUDetail {
	var d CPUDetail

	if percentages, err := cpu.PercentWithContext(ctx, interval, false); err == nil && len(percentages) > 0 {
		d.UsagePercent = Value(percentages[0])
	} else {
		d.UsagePercent = UnavailableErr(err)
	}

	if perCore, err := cpu.PercentWithContext(ctx, 0, true); err == nil {
		d.PerCore = perCore
	}

	if counts, err := cpu.CountsWithContext(ctx, true); err == nil {
		d.LogicalCores = counts
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		d.ModelName = infos[0].ModelName
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		d.Load1 = Value(avg.Load1)
		d.Load5 = Value(avg.Load5)
		d.Load15 = Value(avg.Load15)
	} else {
		unavailable := UnavailableErr(err)
		d.Load1, d.Load5, d.Load15 = unavailable, unavailable, unavailable
	}

	return d
}
