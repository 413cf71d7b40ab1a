package store

import (
	"context"
	"fmt"

	"github.com/chaosprobe/chaosprobe/internal/database"
	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// ContextFilter selects rows from the experiment_with_hypothesis view.
type ContextFilter struct {
	Status           string `json:"status_filter,omitempty"`
	HypothesisStatus string `json:"hypothesis_status_filter,omitempty"`
	ComponentType    string `json:"component_type_filter,omitempty"`
	Limit            int64  `json:"limit,omitempty"`
}

// ExperimentContextResult is the envelope returned by GetExperimentsWithContext.
type ExperimentContextResult struct {
	Success     bool                      `json:"success"`
	Experiments []types.ExperimentContext `json:"experiments"`
	Count       int                       `json:"count"`
	Filters     map[string]any            `json:"filters,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Message     string                    `json:"message"`
}

const experimentsWithContextBaseSQL = `
        SELECT id, title, description, experiment_plan, status,
               scheduled_for, executed_at, completed_at, created_at,
               hypothesis_title, hypothesis_description, hypothesis_status,
               component_name, component_type
        FROM experiment_with_hypothesis`

// GetExperimentsWithContext reads the experiment_with_hypothesis view, which
// joins each experiment to its hypothesis and system component, newest first.
func (s *Store) GetExperimentsWithContext(ctx context.Context, f ContextFilter) *ExperimentContextResult {
	s.logger.Info("getting experiments with context",
		"status", f.Status, "hypothesis_status", f.HypothesisStatus, "component_type", f.ComponentType)

	var b queryBuilder
	if f.Status != "" {
		b.where("status = :status", database.Param("status", f.Status))
	}
	if f.HypothesisStatus != "" {
		b.where("hypothesis_status = :hypothesis_status", database.Param("hypothesis_status", f.HypothesisStatus))
	}
	if f.ComponentType != "" {
		b.where("component_type = :component_type", database.Param("component_type", f.ComponentType))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	sql := b.build(experimentsWithContextBaseSQL, " ORDER BY created_at DESC LIMIT :limit")
	b.params = append(b.params, database.Param("limit", limit))

	out, err := s.gw.Execute(ctx, sql, b.params)
	if err != nil {
		s.logger.Error("getting experiments with context failed", "error", err)
		return &ExperimentContextResult{
			Success:     false,
			Experiments: []types.ExperimentContext{},
			Error:       err.Error(),
			Message:     "Failed to get experiments with context from database",
		}
	}

	experiments := make([]types.ExperimentContext, 0, len(out.Records))
	for _, record := range out.Records {
		experiments = append(experiments, types.ExperimentContext{
			ID:                    database.Long(record[0]),
			Title:                 database.Str(record[1]),
			Description:           database.Str(record[2]),
			ExperimentPlan:        database.Str(record[3]),
			Status:                database.Str(record[4]),
			ScheduledFor:          database.StrPtr(record[5]),
			ExecutedAt:            database.StrPtr(record[6]),
			CompletedAt:           database.StrPtr(record[7]),
			CreatedAt:             database.Str(record[8]),
			HypothesisTitle:       database.StrPtr(record[9]),
			HypothesisDescription: database.StrPtr(record[10]),
			HypothesisStatus:      database.StrPtr(record[11]),
			ComponentName:         database.StrPtr(record[12]),
			ComponentType:         database.StrPtr(record[13]),
		})
	}

	return &ExperimentContextResult{
		Success:     true,
		Experiments: experiments,
		Count:       len(experiments),
		Filters: map[string]any{
			"status":            f.Status,
			"hypothesis_status": f.HypothesisStatus,
			"component_type":    f.ComponentType,
		},
		Message: fmt.Sprintf("Retrieved %d experiments with context", len(experiments)),
	}
}
