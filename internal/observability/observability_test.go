package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestJSONHandler_FieldAllowlist(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewJSONHandler(&buf)).With("component", "chaos_agent.workflow")

	logger.Info("tool completed",
		"tool_name", "insert_hypothesis",
		"duration_ms", 42,
		"internal_detail", "should not appear")

	entry := parseLine(t, &buf)
	assert.Equal(t, "tool completed", entry["message"])
	assert.Equal(t, "chaos_agent.workflow", entry["component"])
	assert.Equal(t, "insert_hypothesis", entry["tool_name"])
	assert.Equal(t, float64(42), entry["duration_ms"])
	assert.NotContains(t, entry, "internal_detail")
	assert.Contains(t, entry, "timestamp")
	assert.Contains(t, entry, "level")
}

func TestLogger_CachedPerComponent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	a := Logger("workflow")
	b := Logger("workflow")
	assert.Same(t, a, b)
	assert.NotSame(t, a, Logger("database"))
}

func TestLogToStdout(t *testing.T) {
	tests := []struct {
		name     string
		override string
		execEnv  string
		want     bool
	}{
		{"explicit true", "true", "", true},
		{"explicit yes", "yes", "", true},
		{"explicit false wins over aws", "false", "AWS_ECS_FARGATE", false},
		{"aws runtime", "", "AWS_ECS_FARGATE", true},
		{"local default", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CHAOS_AGENT_LOG_TO_STDOUT", tt.override)
			t.Setenv("AWS_EXECUTION_ENV", tt.execEnv)
			assert.Equal(t, tt.want, LogToStdout())
		})
	}
}

func TestLogFilePath(t *testing.T) {
	assert.Equal(t, "chaos_agent_hypothesis_generation.log", LogFilePath("hypothesis_generation"))
}

func TestLoggingCallback_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	cb := &LoggingCallback{
		agentName: "experiment_design",
		logger:    slog.New(NewJSONHandler(&buf)),
	}

	cb.Handle(Event{"error": "boom"})

	entry := parseLine(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "experiment_design", entry["agent_name"])
}

func TestPrintingCallback(t *testing.T) {
	var buf bytes.Buffer
	cb := &PrintingCallback{Out: &buf}

	cb.Handle(Event{"data": "streamed text"})
	assert.Equal(t, "streamed text", buf.String())

	buf.Reset()
	cb.Handle(Event{"tool_name": "get_hypotheses"})
	assert.Contains(t, buf.String(), "[tool: get_hypotheses]")
}

func TestCompositeCallback(t *testing.T) {
	var out bytes.Buffer
	var logBuf bytes.Buffer
	composite := CompositeCallback{
		&PrintingCallback{Out: &out},
		&LoggingCallback{agentName: "a", logger: slog.New(NewJSONHandler(&logBuf))},
	}

	composite.Handle(Event{"data": "hello"})
	assert.Equal(t, "hello", out.String())
	assert.NotEmpty(t, logBuf.String())
}
