package collect

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryPercent returns physical memory utilisation as a percentage.
func MemoryPercent() Collector {
	return CollectorFunc(func(ctx context.Context) Reading {
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return UnavailableErr(err)
		}
		return Value(vm.UsedPercent)
	})
}

// MemoryDetail is the richer memory data used by the performance probe.
type MemoryDetail struct {
	UsedPercent    Reading `json:"usedPercent"`
	TotalBytes     uint64  `json:"totalBytes"`
	AvailableBytes uint64  `json:"availableBytes"`
	UsedBytes      uint64  `json:"usedBytes"`
	SwapPercent    Reading `json:"swapPercent"`
	SwapTotalBytes uint64  `json:"swapTotalBytes"`
}

// FetchMemoryDetail gathers virtual and swap memory stats, each degrading
// independently.
func FetchMemoryDetail(ctx context.Context) MemoryDetail {
	var d MemoryDetail

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		d.UsedPercent = Value(vm.UsedPercent)
		d.TotalBytes = vm.Total
		d.AvailableBytes = vm.Available
		d.UsedBytes = vm.Used
	} else {
		d.UsedPercent = UnavailableErr(err)
	}

	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		d.SwapPercent = Value(swap.UsedPercent)
		d.SwapTotalBytes = swap.Total
	} else {
		d.SwapPercent = UnavailableErr(err)
	}

	return d
}
