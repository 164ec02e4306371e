// Package transport implements the MCP server surface: JSON-RPC 2.0 over
// streamable HTTP on POST /mcp, plus the Prometheus and health endpoints.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bc-dunia/sysprobe/internal/events"
	"github.com/bc-dunia/sysprobe/internal/health"
	"github.com/bc-dunia/sysprobe/internal/mcp"
	"github.com/bc-dunia/sysprobe/internal/metrics"
	"github.com/bc-dunia/sysprobe/internal/otel"
	"github.com/bc-dunia/sysprobe/internal/probe"
	"github.com/bc-dunia/sysprobe/internal/types"
)

// Config configures the server.
type Config struct {
	Addr string

	// RateLimit is the request rate limit in requests/second. 0 disables
	// rate limiting.
	RateLimit float64
	RateBurst int
}

// DefaultConfig returns a config bound to loopback with rate limiting on.
func DefaultConfig() *Config {
	return &Config{
		Addr:      "127.0.0.1:8790",
		RateLimit: 20,
		RateBurst: 40,
	}
}

// Toolset holds the handlers behind each exposed tool.
type Toolset struct {
	Aggregator  *health.Aggregator
	Performance *probe.Performance
	Battery     *probe.Battery
	Thermal     *probe.Thermal
	Network     *probe.Network
	System      *probe.System
	Snapshot    *probe.Snapshot
}

// Server is the MCP server.
type Server struct {
	cfg      *Config
	tools    *Toolset
	logger   *events.EventLogger
	registry *metrics.Collector
	tracer   *otel.Tracer
	otelM    *otel.Metrics
	limiter  *rate.Limiter

	httpServer *http.Server
	listener   net.Listener
	addr       string

	mu       sync.Mutex
	sessions map[string]string // session ID -> negotiated protocol version

	nowFunc func() time.Time
}

// New creates a new Server. Nil config, logger, registry, tracer, and otel
// metrics fall back to defaults.
func New(cfg *Config, tools *Toolset, logger *events.EventLogger, registry *metrics.Collector) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = events.NoopEventLogger()
	}
	if registry == nil {
		registry = metrics.NewCollector()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Server{
		cfg:      cfg,
		tools:    tools,
		logger:   logger,
		registry: registry,
		tracer:   otel.GetGlobalTracer(),
		otelM:    otel.GetGlobalMetrics(),
		limiter:  limiter,
		sessions: make(map[string]string),
		nowFunc:  time.Now,
	}
}

// SetTracer overrides the tracer used for tool spans.
func (s *Server) SetTracer(t *otel.Tracer) {
	if t != nil {
		s.tracer = t
	}
}

// SetOTelMetrics overrides the OpenTelemetry metrics instance.
func (s *Server) SetOTelMetrics(m *otel.Metrics) {
	if m != nil {
		s.otelM = m
	}
}

// Start binds the listener and begins serving. Non-blocking.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", normalizeAddr(s.cfg.Addr))
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.addr = ln.Addr().String()

	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleMCP)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.httpServer = &http.Server{
		Handler:           otel.Middleware(s.tracer)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = s.httpServer.Serve(ln)
	}()

	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound address, empty before Start.
func (s *Server) Addr() string {
	return s.addr
}

// MCPURL returns the full URL of the MCP endpoint.
func (s *Server) MCPURL() string {
	if s.addr == "" {
		return ""
	}
	return "http://" + s.addr + "/mcp"
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = io.WriteString(w, s.registry.Expose())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"status":"ok"}`+"\n")
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		writeJSONRPCErrorStatus(w, http.StatusTooManyRequests, nil, -32000, "rate limit exceeded, retry later")
		return
	}

	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		writeJSONRPCError(w, nil, -32700, "failed to read body")
		return
	}

	var req types.JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONRPCError(w, nil, -32700, "invalid json")
		return
	}

	if req.JSONRPC != "2.0" {
		writeJSONRPCError(w, req.ID, -32600, "invalid jsonrpc version")
		return
	}

	switch req.Method {
	case "initialize":
		s.handleInitialize(w, req)
	case "ping":
		writeJSONRPCResult(w, req.ID, map[string]interface{}{})
	case "tools/list":
		writeJSONRPCResult(w, req.ID, types.ToolsListResult{Tools: buildToolsList()})
	case "tools/call":
		s.handleToolsCall(w, r, req)
	default:
		writeJSONRPCError(w, req.ID, -32601, "method not found")
	}
}

func (s *Server) handleInitialize(w http.ResponseWriter, req types.JSONRPCRequest) {
	var params types.InitializeParams
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeJSONRPCError(w, req.ID, -32602, "invalid params")
			return
		}
	}

	version := mcp.Negotiate(params.ProtocolVersion)
	sessionID := uuid.NewString()

	s.mu.Lock()
	s.sessions[sessionID] = version
	s.mu.Unlock()

	s.logger.LogSessionCreated(sessionID, version)
	s.registry.RecordSession()
	s.otelM.IncrementSessions(context.Background())

	w.Header().Set("Mcp-Session-Id", sessionID)
	writeJSONRPCResult(w, req.ID, types.InitializeResult{
		ProtocolVersion: version,
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		ServerInfo: types.ServerInfo{Name: mcp.ServerName, Version: mcp.ServerVersion},
		Instructions: "Read-only host health telemetry. Start with get_health_alerts " +
			"and follow its recommendations into the deeper probes.",
	})
}

// SessionCount returns the number of sessions created so far.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) handleToolsCall(w http.ResponseWriter, r *http.Request, req types.JSONRPCRequest) {
	var params types.ToolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeJSONRPCError(w, req.ID, -32602, "invalid params")
		return
	}
	if params.Name == "" {
		writeJSONRPCError(w, req.ID, -32602, "missing tool name")
		return
	}

	ctx, span := s.tracer.StartToolSpan(r.Context(), otel.ToolSpanOptions{
		SessionID: r.Header.Get("Mcp-Session-Id"),
		Tool:      params.Name,
	})
	defer span.End()

	start := s.nowFunc()
	result, cached := s.executeTool(ctx, params.Name, params.Arguments, start)
	durationMs := time.Since(start).Milliseconds()

	s.logger.LogToolCall(params.Name, durationMs, cached, result.IsError)
	s.registry.RecordToolCall(params.Name, durationMs, cached, result.IsError)
	s.otelM.RecordToolLatency(ctx, params.Name, float64(durationMs), !result.IsError)
	if cached {
		s.otelM.RecordCacheHit(ctx, params.Name)
	}
	if result.IsError {
		s.otelM.RecordError(ctx, "tool_error")
	}

	writeJSONRPCResult(w, req.ID, result)
}

// executeTool dispatches to the handler for the named tool. Panics inside a
// handler surface as an in-band tool error tagged with the tool name, never
// as a dropped connection.
func (s *Server) executeTool(ctx context.Context, name string, args map[string]interface{}, start time.Time) (result types.ToolsCallResult, cached bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.LogToolPanic(name, recovered)
			s.otelM.RecordError(ctx, "tool_panic")
			result = toolErrorResult(fmt.Sprintf("internal error while running %s", name))
			cached = false
		}
	}()

	switch name {
	case health.ToolHealthAlerts:
		report := s.tools.Aggregator.Alerts(ctx)
		return reportResult(report), reportCached(report.CacheInfo, start)

	case health.ToolPerformanceStats:
		opts, err := parsePerformanceOptions(args)
		if err != nil {
			return toolErrorResult(err.Error()), false
		}
		return reportResult(s.tools.Performance.Run(ctx, opts)), false

	case health.ToolBatteryStatus:
		return reportResult(s.tools.Battery.Run(ctx)), false

	case health.ToolThermalStatus:
		report := s.tools.Thermal.Run(ctx)
		return reportResult(report), reportCached(report.CacheInfo, start)

	case health.ToolNetworkStatus:
		report := s.tools.Network.Run(ctx)
		return reportResult(report), reportCached(report.CacheInfo, start)

	case health.ToolSystemHealth:
		return reportResult(s.tools.System.Run(ctx)), false

	case health.ToolSystemSnapshot:
		return reportResult(s.tools.Snapshot.Run(ctx)), false

	default:
		return toolErrorResult(fmt.Sprintf("unknown tool: %s", name)), false
	}
}

// optionArg looks an argument up under its wire name, then its alias.
func optionArg(args map[string]interface{}, names ...string) (interface{}, bool) {
	for _, name := range names {
		if v, ok := args[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func parsePerformanceOptions(args map[string]interface{}) (probe.PerformanceOptions, error) {
	var opts probe.PerformanceOptions
	if args == nil {
		return opts, nil
	}

	// includeProcesses/processLimit are the wire names; the snake_case forms
	// stay accepted for older clients.
	if v, ok := optionArg(args, "includeProcesses", "include_processes"); ok {
		b, ok := v.(bool)
		if !ok {
			return opts, fmt.Errorf("invalid includeProcesses: expected boolean")
		}
		opts.IncludeProcesses = &b
	}

	if v, ok := optionArg(args, "processLimit", "process_limit"); ok {
		n, ok := v.(float64)
		if !ok || n != float64(int(n)) || n < 1 {
			return opts, fmt.Errorf("invalid processLimit: expected positive integer")
		}
		opts.ProcessLimit = int(n)
	}

	return opts, nil
}

// reportCached reports whether a cache-backed report predates this request.
func reportCached(ci *health.CacheInfo, start time.Time) bool {
	return ci != nil && ci.CachedAt.Before(start)
}

// reportResult renders a report as both human-readable text and structured
// content, so clients can use whichever form suits them.
func reportResult(report interface{}) types.ToolsCallResult {
	payload, err := json.Marshal(report)
	if err != nil {
		return toolErrorResult("failed to encode report")
	}

	var structured map[string]interface{}
	if err := json.Unmarshal(payload, &structured); err != nil {
		return toolErrorResult("failed to encode report")
	}

	return types.ToolsCallResult{
		Content:           []types.ToolContent{{Type: "text", Text: string(payload)}},
		StructuredContent: structured,
	}
}

func toolErrorResult(msg string) types.ToolsCallResult {
	return types.ToolsCallResult{
		Content: []types.ToolContent{{Type: "text", Text: msg}},
		IsError: true,
	}
}

func writeJSONRPCResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := types.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
	}
	payload, _ := json.Marshal(result)
	resp.Result = payload

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSONRPCErrorStatus(w, http.StatusOK, id, code, message)
}

// writeJSONRPCErrorStatus writes a JSON-RPC error with a non-200 HTTP status.
// Headers must be set before the status line goes out.
func writeJSONRPCErrorStatus(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	resp := types.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &types.JSONRPCError{
			Code:    code,
			Message: message,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func normalizeAddr(addr string) string {
	if addr == "" {
		return "127.0.0.1:0"
	}
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" {
		return "127.0.0.1:" + port
	}
	return addr
}
