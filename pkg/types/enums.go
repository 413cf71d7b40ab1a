package types

// Hypothesis statuses. The vocabulary is open: agents may write other values,
// these are the ones the workflow itself reads back.
const (
	HypothesisProposed        = "proposed"
	HypothesisPrioritized     = "prioritized"
	HypothesisValidated       = "validated"
	HypothesisRefuted         = "refuted"
	HypothesisNeedsRefinement = "needs_refinement"
)

// Experiment statuses.
const (
	ExperimentDraft     = "draft"
	ExperimentPlanned   = "planned"
	ExperimentScheduled = "scheduled"
	ExperimentCreated   = "created"
	ExperimentRunning   = "running"
	ExperimentCompleted = "completed"
	ExperimentFailed    = "failed"
	ExperimentStopped   = "stopped"
)

// Deployment statuses recorded on resource analyses.
const (
	DeploymentDeployed = "deployed"
	DeploymentUnknown  = "unknown"
)
