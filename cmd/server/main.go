// Command server runs the sysprobe MCP server: a read-only health telemetry
// endpoint for the local host.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bc-dunia/sysprobe/internal/cache"
	"github.com/bc-dunia/sysprobe/internal/config"
	"github.com/bc-dunia/sysprobe/internal/events"
	"github.com/bc-dunia/sysprobe/internal/health"
	"github.com/bc-dunia/sysprobe/internal/mcp"
	"github.com/bc-dunia/sysprobe/internal/metrics"
	"github.com/bc-dunia/sysprobe/internal/otel"
	"github.com/bc-dunia/sysprobe/internal/probe"
	"github.com/bc-dunia/sysprobe/internal/transport"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8790", "HTTP server address")
	rateLimit := flag.Float64("rate-limit", 20, "Request rate limit in requests/second (0 to disable)")
	rateBurst := flag.Int("rate-burst", 40, "Request rate limit burst size")
	alertsTTL := flag.Duration("alerts-ttl", config.AlertsCacheTTL, "Cache TTL for the triage report")
	collectorTimeout := flag.Duration("collector-timeout", config.CollectorTimeout, "Per-collector timeout")
	cpuSampleWindow := flag.Duration("cpu-sample-window", config.DefaultCPUSampleWindow, "CPU usage sampling window")
	otelTraces := flag.Bool("otel-traces", false, "Enable OpenTelemetry tracing")
	otelMetrics := flag.Bool("otel-metrics", false, "Enable OpenTelemetry metrics")
	otelExporter := flag.String("otel-exporter", "none", "OTel exporter: none, stdout, otlp-grpc, otlp-http")
	otlpEndpoint := flag.String("otlp-endpoint", "", "OTLP endpoint (e.g., localhost:4317)")
	otlpInsecure := flag.Bool("otlp-insecure", false, "Disable TLS for OTLP connections")
	flag.Parse()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	logger := events.NewEventLogger(hostname)
	events.SetGlobalEventLogger(logger)

	ctx := context.Background()

	tracer, err := otel.NewTracer(ctx, &otel.Config{
		Enabled:        *otelTraces,
		ServiceName:    mcp.ServerName,
		ServiceVersion: mcp.ServerVersion,
		ExporterType:   otel.ExporterType(*otelExporter),
		OTLPEndpoint:   *otlpEndpoint,
		OTLPInsecure:   *otlpInsecure,
		SampleRate:     1.0,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating tracer: %v\n", err)
		os.Exit(1)
	}
	otel.SetGlobalTracer(tracer)

	otelM, err := otel.NewMetrics(ctx, &otel.MetricsConfig{
		Enabled:        *otelMetrics,
		ServiceName:    mcp.ServerName,
		ServiceVersion: mcp.ServerVersion,
		ExporterType:   otel.ExporterType(*otelExporter),
		OTLPEndpoint:   *otlpEndpoint,
		OTLPInsecure:   *otlpInsecure,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating metrics: %v\n", err)
		os.Exit(1)
	}
	otel.SetGlobalMetrics(otelM)

	store := cache.New()
	aggregator := health.NewAggregator(&health.AggregatorConfig{
		TTL:              *alertsTTL,
		CollectorTimeout: *collectorTimeout,
		CPUSampleWindow:  *cpuSampleWindow,
	}, health.DefaultCollectors(*cpuSampleWindow), store, logger)
	aggregator.SetOTelMetrics(otelM)

	tools := &transport.Toolset{
		Aggregator:  aggregator,
		Performance: probe.NewPerformance(),
		Battery:     probe.NewBattery(),
		Thermal:     probe.NewThermal(store),
		Network:     probe.NewNetwork(store),
		System:      probe.NewSystem(),
		Snapshot:    probe.NewSnapshot(),
	}

	server := transport.New(&transport.Config{
		Addr:      *addr,
		RateLimit: *rateLimit,
		RateBurst: *rateBurst,
	}, tools, logger, metrics.NewCollector())
	server.SetTracer(tracer)
	server.SetOTelMetrics(otelM)

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("sysprobe listening on %s\n", server.MCPURL())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
	}
	_ = tracer.Shutdown(shutdownCtx)
	_ = otelM.Shutdown(shutdownCtx)
}
