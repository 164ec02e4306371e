package collect

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
)

// HostInfo is the static host identity included in the legacy snapshot.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platformVersion"`
	KernelArch      string `json:"kernelArch"`
	UptimeSeconds   uint64 `json:"uptimeSeconds"`
}

// FetchHostInfo reads host identity and uptime.
func FetchHostInfo(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, err
	}
	return HostInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelArch:      info.KernelArch,
		UptimeSeconds:   info.Uptime,
	}, nil
}
