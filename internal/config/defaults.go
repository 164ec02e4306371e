package config

import "time"

// Default cache TTLs and collector limits for the triage engine
const (
	AlertsCacheTTL   = 3 * time.Second
	ThermalCacheTTL  = 10 * time.Second
	NetworkCacheTTL  = 30 * time.Second
	CollectorTimeout = 5 * time.Second

	DefaultProcessLimit    = 5
	DefaultCPUSampleWindow = 200 * time.Millisecond
)
