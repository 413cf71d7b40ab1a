package workflow

import (
	"fmt"

	"github.com/chaosprobe/chaosprobe/internal/config"
)

// Workflow step names, in execution order.
const (
	StepHypothesisGeneration     = "hypothesis_generation"
	StepHypothesisPrioritization = "hypothesis_prioritization"
	StepExperimentDesign         = "experiment_design"
	StepFISSetup                 = "fis_setup"
	StepExperimentExecution      = "experiment_execution"
	StepResultsAnalysis          = "results_analysis"
)

// DefaultWorkload is analyzed when no repository is supplied.
const DefaultWorkload = "https://github.com/aws-containers/retail-store-sample-app.git"

// Params carries the caller-supplied inputs for one workflow run.
type Params struct {
	Workload       string
	Region         string
	Tags           string
	TopExperiments int
}

func (p Params) withDefaults() Params {
	if p.Workload == "" {
		p.Workload = DefaultWorkload
	}
	if p.TopExperiments <= 0 {
		p.TopExperiments = 3
	}
	return p
}

// Step is one stage of the chaos engineering workflow. Instruction renders
// the prompt handed to the step's agent for a given run.
type Step struct {
	Name        string
	Description string
	Agent       string
	Model       func(cfg *config.Config) string
	System      string
	Instruction func(p Params) string
}

// Steps returns the six workflow stages in execution order.
func Steps() []Step {
	return []Step{
		{
			Name:        StepHypothesisGeneration,
			Description: "Generate chaos engineering hypotheses by analyzing the AWS workload",
			Agent:       "hypothesis-generator",
			Model:       (*config.Config).LargeModel,
			System:      hypothesisGeneratorPrompt,
			Instruction: func(p Params) string {
				return fmt.Sprintf("Analyze the AWS workload repository (%s).\n", p.Workload)
			},
		},
		{
			Name:        StepHypothesisPrioritization,
			Description: "Prioritize the generated hypotheses based on impact and feasibility",
			Agent:       "hypothesis-prioritization",
			Model:       (*config.Config).DefaultModel,
			System:      prioritizationPrompt,
			Instruction: func(Params) string { return prioritizationInstruction },
		},
		{
			Name:        StepExperimentDesign,
			Description: "Design AWS FIS experiments based on the prioritized hypotheses",
			Agent:       "experiment-design",
			Model:       (*config.Config).DefaultModel,
			System:      experimentDesignPrompt,
			Instruction: func(Params) string { return experimentDesignInstruction },
		},
		{
			Name:        StepFISSetup,
			Description: "Set up all experiments in AWS FIS",
			Agent:       "experiments",
			Model:       (*config.Config).DefaultModel,
			System:      experimentsPrompt,
			Instruction: func(p Params) string {
				return fmt.Sprintf(fisSetupInstruction, p.Region)
			},
		},
		{
			Name:        StepExperimentExecution,
			Description: "Execute selected experiments and monitor results",
			Agent:       "experiments",
			Model:       (*config.Config).DefaultModel,
			System:      experimentsPrompt,
			Instruction: func(p Params) string {
				return fmt.Sprintf(executionInstruction, p.TopExperiments)
			},
		},
		{
			Name:        StepResultsAnalysis,
			Description: "Analyze experiment results and generate insights",
			Agent:       "learning-and-iteration",
			Model:       (*config.Config).DefaultModel,
			System:      learningPrompt,
			Instruction: func(Params) string { return analysisInstruction },
		},
	}
}

const hypothesisGeneratorPrompt = `You are a chaos engineering hypothesis generator. You analyze AWS workloads (source repositories and deployed resources) to propose specific, testable failure hypotheses. Use the analysis and discovery tools to understand the workload, then save components and hypotheses to the database. Each hypothesis must name a concrete failure mode, the expected steady state, and the persona who cares about it.`

const prioritizationPrompt = `You are a chaos engineering prioritization specialist. You rank hypotheses by business impact, technical feasibility, risk level, and learning value, and record quality evaluations scored 1 to 5. Use the database tools to read hypotheses and persist priority updates and evaluations.`

const experimentDesignPrompt = `You are an AWS Fault Injection Service experiment designer. You turn prioritized hypotheses into production-ready FIS experiment templates with correct actions, targets, stop conditions, and IAM role configuration, and persist them to the database.`

const experimentsPrompt = `You are an AWS FIS operations agent. You create FIS experiment templates from stored configurations, start experiment runs, monitor them to completion, and keep experiment status in the database current. Operate safely and report every state change.`

const learningPrompt = `You are a chaos engineering learning and iteration specialist. You analyze completed experiments, record insights and recommendations, update hypothesis statuses with learnings, and identify follow-up experiments.`

const prioritizationInstruction = `
Prioritize all hypotheses in the database based on:

1. Business impact (customer experience, revenue impact)
2. Technical feasibility (ease of testing, resource requirements)
3. Risk level (blast radius, recovery time)
4. Learning value (insights gained from the experiment)

Update each hypothesis with a priority ranking from 1 to N (1 = highest priority).
Focus on experiments that provide maximum learning with acceptable risk.
`

const experimentDesignInstruction = `
Retrieve all hypotheses from the database (ordered by priority) and create experiment designs for each.
Make sure to look up the latest documentation for each experiment type.

1. Focus on the highest priority hypotheses first
2. Create a production-ready FIS experiment template for each
3. Save the experiment to the database using insert_experiment
4. Include both FIS configuration and IAM role configuration
5. Consider the priority ranking when designing experiments

Start with the top 10 highest priority hypotheses.
`

const fisSetupInstruction = `
Set up AWS FIS experiments for the workload:

1. Get all draft experiments from the database using get_experiments
2. For each experiment, discover AWS resources and create FIS experiments
3. Update experiment status to 'created' when successfully set up
4. I have my app deployed in %s region
5. Prioritize setting up experiments based on their hypothesis priority

Focus on creating real, executable FIS experiments in AWS.
`

const executionInstruction = `
Execute chaos engineering experiments for the workload:

EXECUTION PLAN:
1. Get the top %d highest priority experiments from the database that have status 'created'
2. For each experiment:
   a. Display experiment details (name, hypothesis, expected impact)
   b. Execute the experiment using AWS FIS start_experiment
   c. Monitor experiment progress with detailed status updates
   d. Wait for completion (completed, failed, or stopped)
   e. Capture execution results, duration, and any failure details
   f. Update database with final status and results
3. Provide a summary of all executed experiments

EXECUTION REQUIREMENTS:
- Execute experiments sequentially (one at a time)
- Wait for each experiment to complete before starting the next
- Capture detailed execution logs and timing information
- Update database status throughout the process
- Handle any execution failures gracefully
- Provide clear status updates for each step

SAFETY MEASURES:
- Verify experiment targets before execution
- Monitor for any unexpected behavior
- Capture stop reasons if experiments are terminated
- Log all AWS FIS API responses

Execute experiments safely and provide detailed progress updates.
`

const analysisInstruction = `
Analyze and summarize the results of executed chaos engineering experiments:

ANALYSIS TASKS:
1. Get all experiments from the database with status 'completed', 'failed', or 'stopped'
2. For each executed experiment:
   a. Display experiment name and hypothesis
   b. Show execution status and duration
   c. Analyze any failure patterns or unexpected behaviors
   d. Extract key learnings and insights
3. Provide overall summary of chaos engineering results
4. Recommend next steps based on findings

REPORTING FORMAT:
- Clear experiment-by-experiment breakdown
- Success/failure rates and patterns
- Key insights and learnings discovered
- Recommendations for system improvements
- Suggestions for follow-up experiments

Focus on actionable insights that can improve system resilience.
`
