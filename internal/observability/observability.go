// Package observability provides the structured logging and agent callback
// plumbing. Logs are JSON lines with a fixed field allowlist so downstream
// processors see a stable schema regardless of what callers attach.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Extra fields permitted in log output beyond timestamp, level, component,
// and message. Anything else is dropped.
var allowedFields = map[string]struct{}{
	"component":     {},
	"agent":         {},
	"execution_id":  {},
	"duration_ms":   {},
	"tool_name":     {},
	"tool_use_id":   {},
	"tool_input":    {},
	"tool_output":   {},
	"error":         {},
	"agent_name":    {},
	"callback_data": {},
}

var (
	mu      sync.Mutex
	loggers = map[string]*slog.Logger{}
)

// Logger returns the JSON logger for a non-agent component, writing to
// stderr so agent stdout stays clean. Loggers are cached per component.
func Logger(component string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[component]; ok {
		return l
	}
	l := slog.New(NewJSONHandler(os.Stderr)).With("component", "chaos_agent."+component)
	loggers[component] = l
	return l
}

// AgentLogger returns the JSON logger for an agent, with the sink chosen by
// the runtime environment: stdout in containers, a local file otherwise.
func AgentLogger(agentName string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	key := "agent." + agentName
	if l, ok := loggers[key]; ok {
		return l
	}
	l := slog.New(NewJSONHandler(selectSink(agentName))).With("component", "chaos_agent."+agentName)
	loggers[key] = l
	return l
}

// Reset drops all cached loggers. Test hook.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	loggers = map[string]*slog.Logger{}
}

// NewJSONHandler builds the shared JSON handler: timestamps in a stable key,
// non-allowlisted attributes stripped.
func NewJSONHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				a.Key = "level"
			case slog.MessageKey:
				a.Key = "message"
			default:
				if _, ok := allowedFields[a.Key]; !ok {
					return slog.Attr{}
				}
			}
			return a
		},
	})
}

func logLevel() slog.Level {
	switch strings.ToUpper(os.Getenv("CHAOS_AGENT_LOG_LEVEL")) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
