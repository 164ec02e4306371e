package events

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// EventLogger provides structured logging for key events in sysprobe.
type EventLogger struct {
	logger   *slog.Logger
	hostname string
}

// NewEventLogger creates a new EventLogger with JSON output to stderr so the
// transport's stdout stays clean. It includes a base hostname attribute.
func NewEventLogger(hostname string) *EventLogger {
	return NewEventLoggerWithWriter(hostname, os.Stderr)
}

// NewEventLoggerWithWriter creates a new EventLogger with JSON output to a
// custom writer. Useful for testing or redirecting output.
func NewEventLoggerWithWriter(hostname string, w io.Writer) *EventLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler).With(
		"host", hostname,
	)
	return &EventLogger{
		logger:   logger,
		hostname: hostname,
	}
}

// LogToolCall logs one completed tool invocation.
// event: "tool_call"
// Attributes: tool, duration_ms, cached, is_error
func (el *EventLogger) LogToolCall(tool string, durationMs int64, cached, isError bool) {
	el.logger.Info("tool_call",
		"tool", tool,
		"duration_ms", durationMs,
		"cached", cached,
		"is_error", isError,
	)
}

// LogCollectorUnavailable logs a collector that degraded to unavailable.
// event: "collector_unavailable"
// Attributes: domain, reason
func (el *EventLogger) LogCollectorUnavailable(domain, reason string) {
	el.logger.Warn("collector_unavailable",
		"domain", domain,
		"reason", reason,
	)
}

// LogReportComputed logs a fresh aggregation result.
// event: "report_computed"
// Attributes: operation, score, critical, warning, duration_ms
func (el *EventLogger) LogReportComputed(operation string, score, critical, warning int, durationMs int64) {
	el.logger.Info("report_computed",
		"operation", operation,
		"score", score,
		"critical", critical,
		"warning", warning,
		"duration_ms", durationMs,
	)
}

// LogSessionCreated logs when an MCP session is created.
// event: "session_created"
// Attributes: session_id, protocol_version
func (el *EventLogger) LogSessionCreated(sessionID, protocolVersion string) {
	el.logger.Info("session_created",
		"session_id", sessionID,
		"protocol_version", protocolVersion,
	)
}

// LogToolPanic logs a recovered panic inside a tool handler.
// event: "tool_panic"
// Attributes: tool, panic
func (el *EventLogger) LogToolPanic(tool string, recovered any) {
	el.logger.Error("tool_panic",
		"tool", tool,
		"panic", recovered,
	)
}

// Global logger management
var (
	globalLogger *EventLogger
	globalMu     sync.RWMutex
)

// SetGlobalEventLogger sets the global event logger instance.
func SetGlobalEventLogger(l *EventLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// GetGlobalEventLogger returns the global event logger instance.
// If no logger is set, returns a no-op logger.
func GetGlobalEventLogger() *EventLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return NoopEventLogger()
}

// NoopEventLogger returns an event logger that discards all events.
// Useful for testing or when event logging is disabled.
func NoopEventLogger() *EventLogger {
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &EventLogger{logger: slog.New(handler)}
}
