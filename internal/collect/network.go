package collect

import (
	"context"
	"net"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// Interface describes one network interface for the network probe.
type Interface struct {
	Name      string   `json:"name"`
	Up        bool     `json:"up"`
	MTU       int      `json:"mtu"`
	Addresses []string `json:"addresses,omitempty"`
}

// IOCounters holds per-interface transfer counters.
type IOCounters struct {
	Name        string `json:"name"`
	BytesSent   uint64 `json:"bytesSent"`
	BytesRecv   uint64 `json:"bytesRecv"`
	PacketsSent uint64 `json:"packetsSent"`
	PacketsRecv uint64 `json:"packetsRecv"`
	ErrIn       uint64 `json:"errIn"`
	ErrOut      uint64 `json:"errOut"`
}

// FetchInterfaces enumerates network interfaces. An empty result with a nil
// error means the host genuinely has none; errors mean enumeration itself
// failed and the caller should report incomplete data.
func FetchInterfaces(ctx context.Context) ([]Interface, error) {
	stats, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	interfaces := make([]Interface, 0, len(stats))
	for _, s := range stats {
		iface := Interface{
			Name: s.Name,
			MTU:  s.MTU,
		}
		for _, flag := range s.Flags {
			if flag == "up" {
				iface.Up = true
			}
		}
		for _, addr := range s.Addrs {
			iface.Addresses = append(iface.Addresses, addr.Addr)
		}
		interfaces = append(interfaces, iface)
	}
	return interfaces, nil
}

// FetchIOCounters returns per-interface transfer counters.
func FetchIOCounters(ctx context.Context) ([]IOCounters, error) {
	stats, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, err
	}

	counters := make([]IOCounters, 0, len(stats))
	for _, s := range stats {
		counters = append(counters, IOCounters{
			Name:        s.Name,
			BytesSent:   s.BytesSent,
			BytesRecv:   s.BytesRecv,
			PacketsSent: s.PacketsSent,
			PacketsRecv: s.PacketsRecv,
			ErrIn:       s.Errin,
			ErrOut:      s.Errout,
		})
	}
	return counters, nil
}

// Connectivity checks whether the host can open a TCP connection to a
// well-known endpoint. Restricted networks are expected; the result is a
// Reading (1 reachable, 0 not) so it degrades like every other metric.
func Connectivity(target string, timeout time.Duration) Collector {
	if target == "" {
		target = "1.1.1.1:443"
	}
	return CollectorFunc(func(ctx context.Context) Reading {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", target)
		if err != nil {
			return Value(0)
		}
		conn.Close()
		return Value(1)
	})
}
