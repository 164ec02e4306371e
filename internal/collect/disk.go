package collect

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/disk"
)

// RootVolume is the fixed volume the triage path checks.
func RootVolume() string {
	if runtime.GOOS == "windows" {
		return "C:"
	}
	return "/"
}

// DiskFreePercent returns free space on the given volume as a percentage.
func DiskFreePercent(path string) Collector {
	return CollectorFunc(func(ctx context.Context) Reading {
		usage, err := disk.UsageWithContext(ctx, path)
		if err != nil {
			return UnavailableErr(err)
		}
		if usage.Total == 0 {
			return Unavailable("volume reports zero capacity")
		}
		return Value(100 - usage.UsedPercent)
	})
}

// VolumeUsage describes one mounted volume for the system health probe.
type VolumeUsage struct {
	Mountpoint  string  `json:"mountpoint"`
	Device      string  `json:"device"`
	Fstype      string  `json:"fstype"`
	TotalBytes  uint64  `json:"totalBytes"`
	FreeBytes   uint64  `json:"freeBytes"`
	FreePercent float64 `json:"freePercent"`
}

// FetchVolumes enumerates physical partitions with their usage. Partitions
// whose usage cannot be read are skipped rather than failing the listing.
func FetchVolumes(ctx context.Context) ([]VolumeUsage, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	volumes := make([]VolumeUsage, 0, len(parts))
	for _, p := range parts {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		volumes = append(volumes, VolumeUsage{
			Mountpoint:  p.Mountpoint,
			Device:      p.Device,
			Fstype:      p.Fstype,
			TotalBytes:  usage.Total,
			FreeBytes:   usage.Free,
			FreePercent: 100 - usage.UsedPercent,
		})
	}
	return volumes, nil
}
