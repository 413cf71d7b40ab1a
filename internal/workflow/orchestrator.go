package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaosprobe/chaosprobe/internal/agent"
	"github.com/chaosprobe/chaosprobe/internal/config"
	"github.com/chaosprobe/chaosprobe/internal/metrics"
	"github.com/chaosprobe/chaosprobe/internal/observability"
	"github.com/chaosprobe/chaosprobe/internal/store"
)

// Invoker runs one agent conversation to completion.
type Invoker interface {
	Invoke(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Deps holds the shared services every workflow step draws its tools from.
type Deps struct {
	Store     *store.Store
	Config    *config.Config
	Bedrock   agent.BedrockAPI
	Roles     RoleResolver
	Discovery ResourceLister
	FIS       Experimenter
}

// StepResult is the outcome of one executed workflow step.
type StepResult struct {
	Name     string
	Output   string
	Duration time.Duration
}

// Orchestrator executes the chaos engineering workflow steps in sequence,
// each with its own agent, model, and tool registry.
type Orchestrator struct {
	deps    Deps
	steps   []Step
	logger  *slog.Logger
	runtime func(name, model string, tools *agent.Registry) Invoker
}

// New builds an orchestrator over the standard six-step workflow.
func New(deps Deps) *Orchestrator {
	o := &Orchestrator{
		deps:   deps,
		steps:  Steps(),
		logger: observability.Logger("workflow"),
	}
	o.runtime = func(name, model string, tools *agent.Registry) Invoker {
		return agent.New(name, deps.Bedrock, model, tools)
	}
	return o
}

// SetRuntimeFactory replaces agent construction, used by tests.
func (o *Orchestrator) SetRuntimeFactory(f func(name, model string, tools *agent.Registry) Invoker) {
	o.runtime = f
}

// Run executes every workflow step in order and returns their outputs. A
// failing step aborts the run; completed step results are returned alongside
// the error.
func (o *Orchestrator) Run(ctx context.Context, p Params) ([]StepResult, error) {
	p = p.withDefaults()
	if p.Tags != "" {
		if err := o.deps.Config.SetWorkloadTagsFromString(p.Tags); err != nil {
			return nil, fmt.Errorf("parsing workload tags: %w", err)
		}
	}
	if p.Region == "" {
		p.Region = o.deps.Config.Region(ctx)
	} else if err := o.deps.Config.SetRegionOverride(p.Region); err != nil {
		return nil, err
	}

	metrics.WorkflowRuns.Add(1)
	o.logger.Info("Starting chaos engineering workflow",
		"workload_repo", p.Workload,
		"region", p.Region,
		"top_experiments", p.TopExperiments,
	)

	results := make([]StepResult, 0, len(o.steps))
	for _, step := range o.steps {
		res, err := o.runStep(ctx, step, p)
		if err != nil {
			metrics.WorkflowFailures.Add(1)
			o.logger.Error("Workflow step failed", "component", step.Name, "error", err.Error())
			return results, fmt.Errorf("running step %s: %w", step.Name, err)
		}
		results = append(results, res)
	}

	o.logger.Info("Chaos engineering workflow complete", "duration_ms", totalMillis(results))
	return results, nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step, p Params) (StepResult, error) {
	start := time.Now()
	o.logger.Info(step.Description, "component", step.Name)

	runtime := o.runtime(step.Agent, step.Model(o.deps.Config), o.registryFor(step.Name))
	output, err := runtime.Invoke(ctx, step.System, step.Instruction(p))
	if err != nil {
		return StepResult{}, err
	}

	elapsed := time.Since(start)
	o.logger.Info("Workflow step complete",
		"component", step.Name,
		"duration_ms", elapsed.Milliseconds(),
	)
	return StepResult{Name: step.Name, Output: output, Duration: elapsed}, nil
}

func totalMillis(results []StepResult) int64 {
	var total time.Duration
	for _, r := range results {
		total += r.Duration
	}
	return total.Milliseconds()
}
