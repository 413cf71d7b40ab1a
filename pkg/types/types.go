// Package types defines the shared data types used across chaosprobe.
package types

// SystemComponent is a discrete part of the workload under test (an ECS
// service, an RDS cluster, a Lambda function, ...). Hypotheses reference
// components to scope their failure mode.
type SystemComponent struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Hypothesis is a falsifiable claim about workload behavior under a specific
// failure mode. Priority 1 is the highest; ties are allowed.
type Hypothesis struct {
	ID                     int64   `json:"id"`
	Title                  string  `json:"title"`
	Description            *string `json:"description"`
	Persona                *string `json:"persona"`
	SteadyStateDescription *string `json:"steady_state_description"`
	FailureMode            *string `json:"failure_mode"`
	Status                 string  `json:"status"`
	Priority               int64   `json:"priority"`
	Notes                  *string `json:"notes"`
	SystemComponentID      *int64  `json:"system_component_id"`
	CreatedAt              string  `json:"created_at"`
	UpdatedAt              string  `json:"updated_at"`
	ComponentName          *string `json:"component_name"`
	ComponentType          *string `json:"component_type"`
}

// Experiment is a concrete fault-injection test designed to validate one
// hypothesis. The FIS documents are stored verbatim as JSON.
type Experiment struct {
	ID                   int64          `json:"id"`
	HypothesisID         *int64         `json:"hypothesis_id"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	ExperimentPlan       string         `json:"experiment_plan"`
	FISConfiguration     map[string]any `json:"fis_configuration"`
	FISRoleConfiguration map[string]any `json:"fis_role_configuration"`
	Status               string         `json:"status"`
	CreatedAt            string         `json:"created_at"`
	UpdatedAt            string         `json:"updated_at"`

	HypothesisTitle       *string `json:"hypothesis_title"`
	HypothesisDescription *string `json:"hypothesis_description"`
	ComponentName         *string `json:"component_name"`
	ComponentType         *string `json:"component_type"`
}

// ExperimentContext is one row of the experiment_with_hypothesis view.
// Column order and names are part of the view contract.
type ExperimentContext struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	ExperimentPlan string  `json:"experiment_plan"`
	Status         string  `json:"status"`
	ScheduledFor   *string `json:"scheduled_for"`
	ExecutedAt     *string `json:"executed_at"`
	CompletedAt    *string `json:"completed_at"`
	CreatedAt      string  `json:"created_at"`

	HypothesisTitle       *string `json:"hypothesis_title"`
	HypothesisDescription *string `json:"hypothesis_description"`
	HypothesisStatus      *string `json:"hypothesis_status"`
	ComponentName         *string `json:"component_name"`
	ComponentType         *string `json:"component_type"`
}

// HypothesisEvaluation scores a hypothesis on five quality criteria, each in
// [1,5]. At most one evaluation exists per hypothesis; re-evaluation upserts.
type HypothesisEvaluation struct {
	ID                  int64   `json:"id"`
	HypothesisID        int64   `json:"hypothesis_id"`
	HypothesisTitle     string  `json:"hypothesis_title"`
	TestabilityScore    int64   `json:"testability_score"`
	SpecificityScore    int64   `json:"specificity_score"`
	RealismScore        int64   `json:"realism_score"`
	SafetyScore         int64   `json:"safety_score"`
	LearningValueScore  int64   `json:"learning_value_score"`
	OverallScore        float64 `json:"overall_score"`
	EvaluationTimestamp string  `json:"evaluation_timestamp"`
}

// LearningInsight records what an executed experiment taught us.
type LearningInsight struct {
	ID                  int64  `json:"id"`
	ExperimentID        int64  `json:"experiment_id"`
	KeyLearnings        string `json:"key_learnings"`
	Recommendations     string `json:"recommendations"`
	RefinedHypotheses   string `json:"refined_hypotheses"`
	RiskAssessment      string `json:"risk_assessment"`
	KnowledgeGaps       string `json:"knowledge_gaps"`
	FollowUpExperiments string `json:"follow_up_experiments"`
	CreatedAt           string `json:"created_at"`
	ExperimentTitle     string `json:"experiment_title,omitempty"`
}

// SourceCodeAnalysis is one append-only record of a repository analysis run.
// "Latest" is determined by the most recent analysis_timestamp.
type SourceCodeAnalysis struct {
	ID                     int64             `json:"id"`
	RepositoryURL          string            `json:"repository_url"`
	FrameworkStack         []string          `json:"framework_stack"`
	AWSServicesDetected    []string          `json:"aws_services_detected"`
	InfrastructurePatterns map[string]string `json:"infrastructure_patterns"`
	DeploymentMethods      []string          `json:"deployment_methods"`
	ArchitecturalSummary   *string           `json:"architectural_summary"`
	FailurePointsAnalysis  *string           `json:"failure_points_analysis"`
	Recommendations        *string           `json:"recommendations"`
	AnalysisTimestamp      string            `json:"analysis_timestamp"`
}

// ResourceAnalysis is the latest analysis of one deployed AWS resource,
// upserted by resource_id.
type ResourceAnalysis struct {
	ID                int64          `json:"id"`
	ResourceType      string         `json:"resource_type"`
	ResourceID        string         `json:"resource_id"`
	AWSAccountID      *string        `json:"aws_account_id"`
	Region            *string        `json:"region"`
	AnalysisResults   map[string]any `json:"analysis_results"`
	DeploymentStatus  string         `json:"deployment_status"`
	ResourceMetadata  map[string]any `json:"resource_metadata"`
	AnalysisTimestamp string         `json:"analysis_timestamp"`
}

// DeployedResource is a ResourceAnalysis row shaped for hypothesis
// generation, with the metadata keys agents need lifted to the top level.
type DeployedResource struct {
	ResourceType     string         `json:"resource_type"`
	ResourceID       string         `json:"resource_id"`
	ResourceMetadata map[string]any `json:"resource_metadata"`
	AnalysisResults  map[string]any `json:"analysis_results"`
	AWSAccountID     *string        `json:"aws_account_id"`
	Region           *string        `json:"region"`
	CreatedAt        string         `json:"created_at"`
	DeploymentType   any            `json:"deployment_type"`
	Namespace        any            `json:"namespace"`
	ClusterName      any            `json:"cluster_name"`
}
