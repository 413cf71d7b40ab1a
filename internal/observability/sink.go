package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// LogToStdout reports whether structured agent logs should go to stdout.
// CHAOS_AGENT_LOG_TO_STDOUT overrides in either direction; otherwise
// stdout is used inside AWS runtimes so logs reach CloudWatch.
func LogToStdout() bool {
	switch strings.ToLower(os.Getenv("CHAOS_AGENT_LOG_TO_STDOUT")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return os.Getenv("AWS_EXECUTION_ENV") != ""
}

// LogFilePath returns the per-agent log file name.
func LogFilePath(agentName string) string {
	return fmt.Sprintf("chaos_agent_%s.log", agentName)
}

// selectSink picks where an agent's structured logs go. Container
// environments get stdout; locally a per-agent file is appended to, with
// stderr as the fallback when the file cannot be written.
func selectSink(agentName string) io.Writer {
	if LogToStdout() {
		return os.Stdout
	}
	f, err := os.OpenFile(LogFilePath(agentName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}
