package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chaosprobe/chaosprobe/internal/agent"
	"github.com/chaosprobe/chaosprobe/internal/discovery"
	"github.com/chaosprobe/chaosprobe/internal/fis"
	"github.com/chaosprobe/chaosprobe/internal/store"
)

// RoleResolver looks up the pre-provisioned FIS execution role.
type RoleResolver interface {
	FISExecutionRole(ctx context.Context) (arn, name string, err error)
}

// ResourceLister discovers workload resources and the account identity.
type ResourceLister interface {
	ListTaggedResources(ctx context.Context, workloadTags []map[string]string) ([]discovery.Resource, error)
	AccountID(ctx context.Context) (string, error)
}

// Experimenter drives FIS experiment lifecycle operations.
type Experimenter interface {
	CreateTemplate(ctx context.Context, doc map[string]any, roleArn string) (string, error)
	StartExperiment(ctx context.Context, templateID string) (string, error)
	WaitForCompletion(ctx context.Context, experimentID string) (fis.Outcome, error)
}

// schema builds a flat object schema from property name/type pairs.
func schema(props map[string]string, required ...string) json.RawMessage {
	properties := make(map[string]any, len(props))
	for name, typ := range props {
		properties[name] = map[string]string{"type": typ}
	}
	doc := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		doc["required"] = required
	}
	out, _ := json.Marshal(doc)
	return out
}

// registryFor assembles the tool registry for one workflow step, mirroring
// each agent's tool surface.
func (o *Orchestrator) registryFor(step string) *agent.Registry {
	r := agent.NewRegistry()
	o.registerConfigTools(r)

	switch step {
	case StepHypothesisGeneration:
		o.registerAnalysisTools(r)
		o.registerResourceAnalysisTool(r)
		o.registerComponentTools(r)
		o.registerDiscoveryTools(r)
		r.Register(agent.Tool{
			Name:        "insert_hypothesis",
			Description: "Insert a single chaos engineering hypothesis into the database.",
			InputSchema: schema(map[string]string{
				"title":                    "string",
				"description":              "string",
				"persona":                  "string",
				"steady_state_description": "string",
				"failure_mode":             "string",
				"status":                   "string",
				"priority":                 "integer",
				"notes":                    "string",
				"system_component_id":      "integer",
			}, "title"),
			Run: agent.JSONTool(func(ctx context.Context, in store.NewHypothesis) (any, error) {
				id, err := o.deps.Store.InsertHypothesis(ctx, in)
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "hypothesis_id": id}, nil
			}),
		})
		r.Register(agent.Tool{
			Name:        "update_hypothesis",
			Description: "Update fields of an existing hypothesis. Only supplied fields change.",
			InputSchema: schema(map[string]string{
				"hypothesis_id":            "integer",
				"title":                    "string",
				"description":              "string",
				"persona":                  "string",
				"steady_state_description": "string",
				"failure_mode":             "string",
				"status":                   "string",
				"priority":                 "integer",
				"notes":                    "string",
				"system_component_id":      "integer",
			}, "hypothesis_id"),
			Run: agent.JSONTool(func(ctx context.Context, in struct {
				HypothesisID int64 `json:"hypothesis_id"`
				store.HypothesisUpdate
			}) (any, error) {
				res := o.deps.Store.UpdateHypothesis(ctx, in.HypothesisID, in.HypothesisUpdate)
				if res.Err != nil {
					return nil, res.Err
				}
				return map[string]any{"success": res.OK()}, nil
			}),
		})
		r.Register(agent.Tool{
			Name:        "batch_insert_hypotheses",
			Description: "Insert multiple hypotheses in a single statement. All entries must be valid or the whole batch is rejected.",
			InputSchema: schema(map[string]string{"hypotheses": "array"}, "hypotheses"),
			Run: agent.JSONTool(func(ctx context.Context, in struct {
				Hypotheses []store.NewHypothesis `json:"hypotheses"`
			}) (any, error) {
				return o.deps.Store.BatchInsertHypotheses(ctx, in.Hypotheses), nil
			}),
		})

	case StepHypothesisPrioritization:
		o.registerHypothesisReadTools(r)
		r.Register(agent.Tool{
			Name:        "batch_update_hypothesis_priorities",
			Description: "Update the priority of many hypotheses at once. 1 is the highest priority; ties are allowed.",
			InputSchema: schema(map[string]string{"updates": "array"}, "updates"),
			Run: agent.JSONTool(func(ctx context.Context, in struct {
				Updates []store.PriorityUpdate `json:"updates"`
			}) (any, error) {
				return o.deps.Store.BatchUpdateHypothesisPriorities(ctx, in.Updates), nil
			}),
		})
		o.registerEvaluationTools(r)

	case StepExperimentDesign:
		o.registerHypothesisReadTools(r)
		o.registerExperimentTools(r)
		o.registerResourceAnalysisTool(r)
		r.Register(agent.Tool{
			Name:        "get_fis_execution_role",
			Description: "Get the pre-generated FIS execution role ARN from CloudFormation exports.",
			Run: agent.JSONTool(func(ctx context.Context, _ struct{}) (any, error) {
				arn, name, err := o.deps.Roles.FISExecutionRole(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"success":  true,
					"role_arn": arn, "role_name": name,
					"message": "Retrieved pre-generated FIS execution role: " + arn,
				}, nil
			}),
		})

	case StepFISSetup:
		o.registerExperimentTools(r)
		o.registerDiscoveryTools(r)
		o.registerResourceAnalysisTool(r)
		r.Register(agent.Tool{
			Name:        "create_fis_experiment_template",
			Description: "Create an AWS FIS experiment template from a stored fis_configuration document. The execution role is filled in automatically.",
			InputSchema: schema(map[string]string{"fis_configuration": "object"}, "fis_configuration"),
			Run: agent.JSONTool(func(ctx context.Context, in struct {
				FISConfiguration map[string]any `json:"fis_configuration"`
			}) (any, error) {
				arn, _, err := o.deps.Roles.FISExecutionRole(ctx)
				if err != nil {
					return nil, err
				}
				templateID, err := o.deps.FIS.CreateTemplate(ctx, in.FISConfiguration, arn)
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "template_id": templateID}, nil
			}),
		})

	case StepExperimentExecution:
		o.registerExperimentTools(r)
		r.Register(agent.Tool{
			Name:        "start_fis_experiment",
			Description: "Start a run of an AWS FIS experiment template.",
			InputSchema: schema(map[string]string{"template_id": "string"}, "template_id"),
			Run: agent.JSONTool(func(ctx context.Context, in struct {
				TemplateID string `json:"template_id"`
			}) (any, error) {
				id, err := o.deps.FIS.StartExperiment(ctx, in.TemplateID)
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "fis_experiment_id": id}, nil
			}),
		})
		r.Register(agent.Tool{
			Name:        "wait_for_fis_experiment",
			Description: "Block until a running FIS experiment reaches a terminal state (completed, stopped, or failed), up to timeout_minutes.",
			InputSchema: schema(map[string]string{
				"fis_experiment_id": "string",
				"timeout_minutes":   "integer",
			}, "fis_experiment_id"),
			Run: agent.JSONTool(func(ctx context.Context, in struct {
				FISExperimentID string `json:"fis_experiment_id"`
				TimeoutMinutes  int    `json:"timeout_minutes"`
			}) (any, error) {
				timeout := time.Duration(in.TimeoutMinutes) * time.Minute
				if timeout <= 0 {
					timeout = 30 * time.Minute
				}
				waitCtx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				outcome, err := o.deps.FIS.WaitForCompletion(waitCtx, in.FISExperimentID)
				if err != nil {
					return nil, err
				}
				return outcome, nil
			}),
		})

	case StepResultsAnalysis:
		r.Register(agent.Tool{
			Name:        "get_experiment_results",
			Description: "Retrieve executed experiments for analysis, optionally narrowed to one experiment or one status.",
			InputSchema: schema(map[string]string{
				"experiment_id": "integer",
				"status":        "string",
				"limit":         "integer",
			}),
			Run: agent.JSONTool(func(ctx context.Context, in struct {
				ExperimentID *int64 `json:"experiment_id"`
				Status       string `json:"status"`
				Limit        int64  `json:"limit"`
			}) (any, error) {
				return o.deps.Store.GetExperimentResults(ctx, in.ExperimentID, in.Status, in.Limit), nil
			}),
		})
		r.Register(agent.Tool{
			Name:        "save_learning_insights",
			Description: "Save learning insights and recommendations for an executed experiment.",
			InputSchema: schema(map[string]string{
				"experiment_id":         "integer",
				"key_learnings":         "string",
				"recommendations":       "string",
				"refined_hypotheses":    "string",
				"risk_assessment":       "string",
				"knowledge_gaps":        "string",
				"follow_up_experiments": "string",
			}, "experiment_id", "key_learnings", "recommendations"),
			Run: agent.JSONTool(func(ctx context.Context, in store.NewInsight) (any, error) {
				res := o.deps.Store.SaveLearningInsights(ctx, in)
				if res.Err != nil {
					return nil, res.Err
				}
				return map[string]any{"success": true, "message": "Learning insights saved successfully"}, nil
			}),
		})
		r.Register(agent.Tool{
			Name:        "get_learning_history",
			Description: "Retrieve historical learning insights for trend analysis.",
			InputSchema: schema(map[string]string{"days_back": "integer"}),
			Run: agent.JSONTool(func(ctx context.Context, in struct {
				DaysBack int `json:"days_back"`
			}) (any, error) {
				return o.deps.Store.GetLearningHistory(ctx, in.DaysBack), nil
			}),
		})
		r.Register(agent.Tool{
			Name:        "update_hypothesis_status",
			Description: "Record an experiment's verdict on a hypothesis: its new status plus learning notes.",
			InputSchema: schema(map[string]string{
				"hypothesis_id":  "integer",
				"status":         "string",
				"learning_notes": "string",
			}, "hypothesis_id", "status"),
			Run: agent.JSONTool(func(ctx context.Context, in struct {
				HypothesisID  int64  `json:"hypothesis_id"`
				Status        string `json:"status"`
				LearningNotes string `json:"learning_notes"`
			}) (any, error) {
				res := o.deps.Store.UpdateHypothesisStatus(ctx, in.HypothesisID, in.Status, in.LearningNotes)
				if res.Err != nil {
					return nil, res.Err
				}
				return map[string]any{"success": res.OK(), "hypothesis_id": in.HypothesisID}, nil
			}),
		})
		r.Register(agent.Tool{
			Name:        "get_experiments_with_context",
			Description: "Get experiments with their hypothesis and system component context from the database view.",
			InputSchema: schema(map[string]string{
				"status_filter":            "string",
				"hypothesis_status_filter": "string",
				"component_type_filter":    "string",
				"limit":                    "integer",
			}),
			Run: agent.JSONTool(func(ctx context.Context, in store.ContextFilter) (any, error) {
				return o.deps.Store.GetExperimentsWithContext(ctx, in), nil
			}),
		})
	}
	return r
}

func (o *Orchestrator) registerConfigTools(r *agent.Registry) {
	r.Register(agent.Tool{
		Name:        "get_aws_region",
		Description: "Get the AWS region chaos experiments run in.",
		Run: agent.JSONTool(func(ctx context.Context, _ struct{}) (any, error) {
			return map[string]any{"region": o.deps.Config.Region(ctx)}, nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "get_workload_tags",
		Description: "Get workload tags for resource filtering. An empty list means all resources are in scope.",
		Run: agent.JSONTool(func(ctx context.Context, _ struct{}) (any, error) {
			return o.deps.Config.WorkloadTags(), nil
		}),
	})
}

func (o *Orchestrator) registerHypothesisReadTools(r *agent.Registry) {
	r.Register(agent.Tool{
		Name:        "get_hypotheses",
		Description: "Get hypotheses with flexible filtering, ordered by priority (1 = highest) then recency.",
		InputSchema: schema(map[string]string{
			"hypothesis_ids":      "array",
			"status_filter":       "string",
			"priority_filter":     "integer",
			"system_component_id": "integer",
			"service_filter":      "string",
			"top_n":               "integer",
			"min_priority":        "integer",
			"max_priority":        "integer",
			"limit":               "integer",
		}),
		Run: agent.JSONTool(func(ctx context.Context, in store.HypothesisFilter) (any, error) {
			return o.deps.Store.GetHypotheses(ctx, in), nil
		}),
	})
}

func (o *Orchestrator) registerExperimentTools(r *agent.Registry) {
	r.Register(agent.Tool{
		Name:        "get_experiments",
		Description: "Get experiments with hypothesis and component context, newest first.",
		InputSchema: schema(map[string]string{
			"status_filter": "string",
			"hypothesis_id": "integer",
			"limit":         "integer",
		}),
		Run: agent.JSONTool(func(ctx context.Context, in store.ExperimentFilter) (any, error) {
			return o.deps.Store.GetExperiments(ctx, in), nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "insert_experiment",
		Description: "Insert an experiment with its FIS configuration into the database.",
		InputSchema: schema(map[string]string{
			"experiment_name":        "string",
			"hypothesis_id":          "integer",
			"description":            "string",
			"experiment_plan":        "string",
			"fis_configuration":      "object",
			"fis_role_configuration": "object",
			"status":                 "string",
		}, "experiment_name", "hypothesis_id", "description", "experiment_plan", "fis_configuration"),
		Run: agent.JSONTool(func(ctx context.Context, in store.NewExperiment) (any, error) {
			id, err := o.deps.Store.InsertExperiment(ctx, in)
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "experiment_id": id}, nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "update_experiment",
		Description: "Update fields of an experiment: status, FIS experiment id, notes, or execution timestamps.",
		InputSchema: schema(map[string]string{
			"experiment_id":     "integer",
			"title":             "string",
			"description":       "string",
			"experiment_plan":   "string",
			"status":            "string",
			"fis_experiment_id": "string",
			"experiment_notes":  "string",
			"scheduled_for":     "string",
			"executed_at":       "string",
			"completed_at":      "string",
		}, "experiment_id"),
		Run: agent.JSONTool(func(ctx context.Context, in struct {
			ExperimentID int64 `json:"experiment_id"`
			store.ExperimentUpdate
		}) (any, error) {
			res := o.deps.Store.UpdateExperiment(ctx, in.ExperimentID, in.ExperimentUpdate)
			if res.Err != nil {
				return nil, res.Err
			}
			return map[string]any{"success": res.OK()}, nil
		}),
	})
}

func (o *Orchestrator) registerComponentTools(r *agent.Registry) {
	r.Register(agent.Tool{
		Name:        "get_system_components",
		Description: "Get system components, optionally filtered by type, ordered by name.",
		InputSchema: schema(map[string]string{"component_type": "string", "limit": "integer"}),
		Run: agent.JSONTool(func(ctx context.Context, in struct {
			ComponentType string `json:"component_type"`
			Limit         int64  `json:"limit"`
		}) (any, error) {
			return o.deps.Store.GetSystemComponents(ctx, in.ComponentType, in.Limit), nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "insert_system_component",
		Description: "Insert one system component of the workload under test.",
		InputSchema: schema(map[string]string{
			"name":        "string",
			"type":        "string",
			"description": "string",
		}, "name", "type"),
		Run: agent.JSONTool(func(ctx context.Context, in store.NewComponent) (any, error) {
			id, err := o.deps.Store.InsertSystemComponent(ctx, in)
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "component_id": id}, nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "update_system_component",
		Description: "Update fields of a system component. Only supplied fields change.",
		InputSchema: schema(map[string]string{
			"component_id":   "integer",
			"name":           "string",
			"component_type": "string",
			"description":    "string",
		}, "component_id"),
		Run: agent.JSONTool(func(ctx context.Context, in struct {
			ComponentID int64 `json:"component_id"`
			store.ComponentUpdate
		}) (any, error) {
			res := o.deps.Store.UpdateSystemComponent(ctx, in.ComponentID, in.ComponentUpdate)
			if res.Err != nil {
				return nil, res.Err
			}
			return map[string]any{"success": res.OK()}, nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "batch_insert_system_components",
		Description: "Insert multiple system components in a single statement.",
		InputSchema: schema(map[string]string{"components": "array"}, "components"),
		Run: agent.JSONTool(func(ctx context.Context, in struct {
			Components []store.NewComponent `json:"components"`
		}) (any, error) {
			return o.deps.Store.BatchInsertSystemComponents(ctx, in.Components), nil
		}),
	})
}

func (o *Orchestrator) registerAnalysisTools(r *agent.Registry) {
	r.Register(agent.Tool{
		Name:        "get_source_analysis",
		Description: "Get the latest source code analysis from the database.",
		Run: agent.JSONTool(func(ctx context.Context, _ struct{}) (any, error) {
			return o.deps.Store.GetSourceAnalysis(ctx), nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "insert_source_analysis",
		Description: "Insert source code analysis results into the database.",
		InputSchema: schema(map[string]string{
			"repository_url":          "string",
			"framework_stack":         "array",
			"aws_services_detected":   "array",
			"infrastructure_patterns": "object",
			"deployment_methods":      "array",
			"architectural_summary":   "string",
			"failure_points_analysis": "string",
			"recommendations":         "string",
		}, "repository_url"),
		Run: agent.JSONTool(func(ctx context.Context, in store.NewSourceAnalysis) (any, error) {
			id, err := o.deps.Store.InsertSourceAnalysis(ctx, in)
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "analysis_id": id}, nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "insert_resource_analysis",
		Description: "Insert or refresh the analysis of one deployed AWS resource, keyed by resource_id.",
		InputSchema: schema(map[string]string{
			"resource_type":     "string",
			"resource_id":       "string",
			"aws_account_id":    "string",
			"region":            "string",
			"analysis_results":  "object",
			"deployment_status": "string",
			"resource_metadata": "object",
		}, "resource_type", "resource_id"),
		Run: agent.JSONTool(func(ctx context.Context, in store.NewResourceAnalysis) (any, error) {
			id, err := o.deps.Store.InsertResourceAnalysis(ctx, in)
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "analysis_id": id}, nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "get_deployed_resources",
		Description: "Get only deployed AWS resources for hypothesis generation, grouped by resource type.",
		Run: agent.JSONTool(func(ctx context.Context, _ struct{}) (any, error) {
			return o.deps.Store.GetDeployedResources(ctx), nil
		}),
	})
}

func (o *Orchestrator) registerResourceAnalysisTool(r *agent.Registry) {
	r.Register(agent.Tool{
		Name:        "get_resource_analysis",
		Description: "Get the latest AWS resource analysis from the database.",
		Run: agent.JSONTool(func(ctx context.Context, _ struct{}) (any, error) {
			return o.deps.Store.GetResourceAnalysis(ctx), nil
		}),
	})
}

func (o *Orchestrator) registerDiscoveryTools(r *agent.Registry) {
	r.Register(agent.Tool{
		Name:        "list_tagged_resources",
		Description: "Discover AWS resources in the region matching the configured workload tags.",
		Run: agent.JSONTool(func(ctx context.Context, _ struct{}) (any, error) {
			resources, err := o.deps.Discovery.ListTaggedResources(ctx, o.deps.Config.WorkloadTags())
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "resources": resources, "count": len(resources)}, nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "get_caller_account",
		Description: "Get the AWS account id of the active credentials.",
		Run: agent.JSONTool(func(ctx context.Context, _ struct{}) (any, error) {
			account, err := o.deps.Discovery.AccountID(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"account_id": account}, nil
		}),
	})
}

func (o *Orchestrator) registerEvaluationTools(r *agent.Registry) {
	r.Register(agent.Tool{
		Name:        "insert_hypothesis_evaluation",
		Description: "Insert or refresh the quality evaluation of one hypothesis. All scores must be between 1 and 5.",
		InputSchema: schema(map[string]string{
			"hypothesis_id":        "integer",
			"testability_score":    "integer",
			"specificity_score":    "integer",
			"realism_score":        "integer",
			"safety_score":         "integer",
			"learning_value_score": "integer",
			"overall_score":        "number",
		}, "hypothesis_id", "testability_score", "specificity_score", "realism_score", "safety_score", "learning_value_score", "overall_score"),
		Run: agent.JSONTool(func(ctx context.Context, in store.NewEvaluation) (any, error) {
			return o.deps.Store.InsertHypothesisEvaluation(ctx, in), nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "batch_insert_hypothesis_evaluations",
		Description: "Insert or refresh many hypothesis evaluations in a single statement.",
		InputSchema: schema(map[string]string{"evaluations": "array"}, "evaluations"),
		Run: agent.JSONTool(func(ctx context.Context, in struct {
			Evaluations []store.NewEvaluation `json:"evaluations"`
		}) (any, error) {
			return o.deps.Store.BatchInsertHypothesisEvaluations(ctx, in.Evaluations), nil
		}),
	})
	r.Register(agent.Tool{
		Name:        "get_hypothesis_evaluations",
		Description: "Get hypothesis evaluations, best-scored first.",
		InputSchema: schema(map[string]string{
			"hypothesis_ids":    "array",
			"min_overall_score": "number",
			"max_overall_score": "number",
			"limit":             "integer",
		}),
		Run: agent.JSONTool(func(ctx context.Context, in store.EvaluationFilter) (any, error) {
			return o.deps.Store.GetHypothesisEvaluations(ctx, in), nil
		}),
	})
}
