package collect

import (
	"context"
	"sort"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo describes one process in a top-N listing.
type ProcessInfo struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float32 `json:"memoryPercent"`
}

// FetchTopProcesses enumerates processes and returns the top limit by CPU
// usage. Processes that disappear or deny access mid-walk are skipped.
// This is the most expensive collector; the performance probe exposes a flag
// to skip it entirely.
func FetchTopProcesses(ctx context.Context, limit int) ([]ProcessInfo, error) {
	if limit <= 0 {
		limit = 5
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		cpuPct, err := p.CPUPercentWithContext(ctx)
		if err != nil {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		memPct, _ := p.MemoryPercentWithContext(ctx)
		infos = append(infos, ProcessInfo{
			PID:           p.Pid,
			Name:          name,
			CPUPercent:    cpuPct,
			MemoryPercent: memPct,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CPUPercent > infos[j].CPUPercent
	})
	if len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}
