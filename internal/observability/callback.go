package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
)

// Event is one callback payload emitted by the agent runtime: streamed text,
// a tool invocation, or an error.
type Event map[string]any

// Callback receives agent events.
type Callback interface {
	Handle(event Event)
}

// PrintingCallback writes a human-readable rendition of agent activity to
// stdout: streamed text verbatim, tool invocations dimmed.
type PrintingCallback struct {
	Out io.Writer
}

func NewPrintingCallback() *PrintingCallback {
	return &PrintingCallback{Out: os.Stdout}
}

func (p *PrintingCallback) Handle(event Event) {
	if data, ok := event["data"].(string); ok {
		fmt.Fprint(p.Out, data)
		return
	}
	if name, ok := event["tool_name"].(string); ok {
		dim := color.New(color.Faint)
		dim.Fprintf(p.Out, "\n[tool: %s]\n", name)
	}
}

// LoggingCallback records every event as a structured log line on the
// agent's logger. Events carrying an error key log at error level.
type LoggingCallback struct {
	agentName string
	logger    *slog.Logger
}

func NewLoggingCallback(agentName string) *LoggingCallback {
	return &LoggingCallback{agentName: agentName, logger: AgentLogger(agentName)}
}

func (l *LoggingCallback) Handle(event Event) {
	level := slog.LevelInfo
	if _, ok := event["error"]; ok {
		level = slog.LevelError
	}
	l.logger.Log(context.Background(), level, "Agent callback event",
		"agent_name", l.agentName,
		"callback_data", map[string]any(event))
}

// CompositeCallback fans one event out to several handlers.
type CompositeCallback []Callback

func (c CompositeCallback) Handle(event Event) {
	for _, cb := range c {
		cb.Handle(event)
	}
}

// NewCallback builds the standard pairing for an agent: clean stdout output
// plus comprehensive structured logging.
func NewCallback(agentName string) Callback {
	return CompositeCallback{NewPrintingCallback(), NewLoggingCallback(agentName)}
}
