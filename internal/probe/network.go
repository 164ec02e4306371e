package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/bc-dunia/sysprobe/internal/cache"
	"github.com/bc-dunia/sysprobe/internal/collect"
	"github.com/bc-dunia/sysprobe/internal/config"
	"github.com/bc-dunia/sysprobe/internal/health"
)

// NetworkData is the network probe's domain payload.
type NetworkData struct {
	Interfaces   []collect.Interface  `json:"interfaces"`
	IOCounters   []collect.IOCounters `json:"ioCounters,omitempty"`
	Connectivity collect.Reading      `json:"connectivity"`
	// Note explains incomplete enumeration.
	Note string `json:"note,omitempty"`
}

// Network inspects interfaces, transfer counters, and outbound connectivity.
// Interface sets change rarely, so it keeps its own cache with a longer TTL
// than the thermal probe.
type Network struct {
	store *cache.Store
	ttl   time.Duration

	fetchInterfaces func(ctx context.Context) ([]collect.Interface, error)
	fetchCounters   func(ctx context.Context) ([]collect.IOCounters, error)
	connectivity    collect.Collector
	nowFunc         func() time.Time
}

// NewNetwork creates the network probe. A nil store gets a private one.
func NewNetwork(store *cache.Store) *Network {
	if store == nil {
		store = cache.New()
	}
	return &Network{
		store:           store,
		ttl:             config.NetworkCacheTTL,
		fetchInterfaces: collect.FetchInterfaces,
		fetchCounters:   collect.FetchIOCounters,
		connectivity:    collect.Connectivity("", 3*time.Second),
		nowFunc:         time.Now,
	}
}

// Run executes the probe, serving from cache within the TTL window.
func (n *Network) Run(ctx context.Context) *Report {
	value, _, _, err := n.store.GetOrCompute(health.ToolNetworkStatus, n.ttl, func() (any, error) {
		return n.compute(ctx), nil
	})
	if err != nil {
		return n.compute(ctx)
	}
	return value.(*Report)
}

func (n *Network) compute(ctx context.Context) *Report {
	var data NetworkData
	severity := health.SeverityInfo

	interfaces, err := n.fetchInterfaces(ctx)
	if err != nil {
		// Missing enumeration is incomplete data, a warning in its own
		// right, never folded into a critical.
		severity = health.SeverityWarning
		data.Note = "interface enumeration unavailable: " + err.Error()
	} else {
		data.Interfaces = interfaces
	}

	if counters, err := n.fetchCounters(ctx); err == nil {
		data.IOCounters = counters
	}

	data.Connectivity = n.connectivity.Fetch(ctx)

	upCount := 0
	for _, iface := range data.Interfaces {
		if iface.Up && iface.Name != "lo" {
			upCount++
		}
	}
	if err == nil && upCount == 0 {
		severity = severity.Max(health.SeverityWarning)
	}

	at := n.nowFunc()
	report := newReport(health.DomainNetwork, at, severity, data)
	report.CacheInfo = &health.CacheInfo{CachedAt: at, TTLSeconds: n.ttl.Seconds()}

	switch {
	case data.Note != "":
		report.ActionableSummary = "Network data incomplete: " + data.Note
	case upCount == 0:
		report.ActionableSummary = "No non-loopback interface is up"
		report.Recommendations = append(report.Recommendations, "Check physical links and interface configuration")
	case data.Connectivity.Available && data.Connectivity.Value == 0:
		report.ActionableSummary = fmt.Sprintf("%d interface(s) up but outbound connectivity failed", upCount)
		report.Recommendations = append(report.Recommendations, "Check default route, DNS, and upstream firewall rules")
	default:
		report.ActionableSummary = fmt.Sprintf("Network nominal: %d interface(s) up, connectivity ok", upCount)
	}

	return report
}
