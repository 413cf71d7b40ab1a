// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var (
	StatementsExecuted    = expvar.NewInt("statements_executed")
	StatementErrors       = expvar.NewInt("statement_errors")
	ToolExecutions        = expvar.NewInt("tool_executions")
	ToolErrors            = expvar.NewInt("tool_errors")
	AgentInvocations      = expvar.NewInt("agent_invocations")
	AgentInvocationErrors = expvar.NewInt("agent_invocation_errors")
	WorkflowRuns          = expvar.NewInt("workflow_runs")
	WorkflowFailures      = expvar.NewInt("workflow_failures")
	BreakerOpens          = expvar.NewInt("breaker_opens")
	ExperimentsStarted    = expvar.NewInt("experiments_started")
)
