package store

import (
	"context"
	"fmt"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"github.com/chaosprobe/chaosprobe/internal/database"
	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// NewExperiment carries the fields for an experiment insert. Zero-value
// Status defaults to "draft".
type NewExperiment struct {
	Name                 string         `json:"experiment_name"`
	HypothesisID         int64          `json:"hypothesis_id"`
	Description          string         `json:"description"`
	ExperimentPlan       string         `json:"experiment_plan"`
	FISConfiguration     map[string]any `json:"fis_configuration"`
	FISRoleConfiguration map[string]any `json:"fis_role_configuration,omitempty"`
	Status               string         `json:"status,omitempty"`
}

// ExperimentUpdate carries the fields for an experiment update; nil means
// "leave unchanged". Timestamps are ISO 8601 strings, cast to timestamptz
// in the statement.
type ExperimentUpdate struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	ExperimentPlan  *string `json:"experiment_plan,omitempty"`
	Status          *string `json:"status,omitempty"`
	FISExperimentID *string `json:"fis_experiment_id,omitempty"`
	ExperimentNotes *string `json:"experiment_notes,omitempty"`
	ScheduledFor    *string `json:"scheduled_for,omitempty"`
	ExecutedAt      *string `json:"executed_at,omitempty"`
	CompletedAt     *string `json:"completed_at,omitempty"`
}

// ExperimentFilter selects experiments for GetExperiments.
type ExperimentFilter struct {
	Status       string `json:"status_filter,omitempty"`
	HypothesisID *int64 `json:"hypothesis_id,omitempty"`
	Limit        int64  `json:"limit,omitempty"`
}

// ExperimentsResult is the envelope returned by GetExperiments.
type ExperimentsResult struct {
	Success     bool               `json:"success"`
	Experiments []types.Experiment `json:"experiments"`
	Count       int                `json:"count"`
	Filters     map[string]any     `json:"filters,omitempty"`
	Error       string             `json:"error,omitempty"`
	Message     string             `json:"message"`
}

const insertExperimentSQL = `
        INSERT INTO experiment (
            hypothesis_id, title, description, experiment_plan,
            fis_configuration, fis_role_configuration, status
        ) VALUES (
            :hypothesis_id, :title, :description, :experiment_plan,
            :fis_configuration::jsonb, :fis_role_configuration::jsonb, :status
        )
        RETURNING id`

// InsertExperiment inserts one experiment and returns its id. The FIS
// documents are serialized to JSON and cast to jsonb server-side.
func (s *Store) InsertExperiment(ctx context.Context, e NewExperiment) (int64, error) {
	if e.Status == "" {
		e.Status = types.ExperimentDraft
	}
	s.logger.Info("inserting experiment", "title", e.Name, "hypothesis_id", e.HypothesisID, "status", e.Status)

	var roleConfig any
	if e.FISRoleConfiguration != nil {
		roleConfig = e.FISRoleConfiguration
	}
	params := []rdstypes.SqlParameter{
		database.Param("hypothesis_id", e.HypothesisID),
		database.Param("title", e.Name),
		database.Param("description", e.Description),
		database.Param("experiment_plan", e.ExperimentPlan),
		database.JSONParam("fis_configuration", e.FISConfiguration),
		database.JSONParam("fis_role_configuration", roleConfig),
		database.Param("status", e.Status),
	}

	out, err := s.gw.Execute(ctx, insertExperimentSQL, params)
	if err != nil {
		return 0, fmt.Errorf("inserting experiment: %w", err)
	}
	ids := database.ReturnedIDs(out)
	if len(ids) == 0 {
		return 0, fmt.Errorf("inserting experiment: no id returned")
	}
	return ids[0], nil
}

const getExperimentsBaseSQL = `
        SELECT e.id, e.hypothesis_id, e.title, e.description, e.experiment_plan,
               e.fis_configuration, e.fis_role_configuration, e.status, e.created_at, e.updated_at,
               h.title as hypothesis_title, h.description as hypothesis_description,
               sc.name as component_name, sc.type as component_type
        FROM experiment e
        LEFT JOIN hypothesis h ON e.hypothesis_id = h.id
        LEFT JOIN system_component sc ON h.system_component_id = sc.id`

// GetExperiments retrieves experiments with hypothesis and component context,
// newest first.
func (s *Store) GetExperiments(ctx context.Context, f ExperimentFilter) *ExperimentsResult {
	s.logger.Info("getting experiments", "status", f.Status, "hypothesis_id", f.HypothesisID)

	var b queryBuilder
	if f.Status != "" {
		b.where("e.status = :status", database.Param("status", f.Status))
	}
	if f.HypothesisID != nil {
		b.where("e.hypothesis_id = :hypothesis_id", database.Param("hypothesis_id", *f.HypothesisID))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	sql := b.build(getExperimentsBaseSQL, " ORDER BY e.created_at DESC LIMIT :limit")
	b.params = append(b.params, database.Param("limit", limit))

	out, err := s.gw.Execute(ctx, sql, b.params)
	if err != nil {
		s.logger.Error("getting experiments failed", "error", err)
		return &ExperimentsResult{
			Success:     false,
			Experiments: []types.Experiment{},
			Error:       err.Error(),
			Message:     "Failed to get experiments from database",
		}
	}

	experiments := make([]types.Experiment, 0, len(out.Records))
	for _, record := range out.Records {
		experiments = append(experiments, types.Experiment{
			ID:                    database.Long(record[0]),
			HypothesisID:          database.LongPtr(record[1]),
			Title:                 database.Str(record[2]),
			Description:           database.Str(record[3]),
			ExperimentPlan:        database.Str(record[4]),
			FISConfiguration:      database.JSONMap(record[5], "fis_configuration", s.logger),
			FISRoleConfiguration:  database.JSONMap(record[6], "fis_role_configuration", s.logger),
			Status:                database.Str(record[7]),
			CreatedAt:             database.Str(record[8]),
			UpdatedAt:             database.Str(record[9]),
			HypothesisTitle:       database.StrPtr(record[10]),
			HypothesisDescription: database.StrPtr(record[11]),
			ComponentName:         database.StrPtr(record[12]),
			ComponentType:         database.StrPtr(record[13]),
		})
	}

	return &ExperimentsResult{
		Success:     true,
		Experiments: experiments,
		Count:       len(experiments),
		Filters: map[string]any{
			"status":        f.Status,
			"hypothesis_id": f.HypothesisID,
		},
		Message: fmt.Sprintf("Retrieved %d experiments", len(experiments)),
	}
}

// UpdateExperiment updates only the supplied fields of one experiment.
// Supplying no fields is a no-op that does not touch the database.
func (s *Store) UpdateExperiment(ctx context.Context, id int64, upd ExperimentUpdate) Result {
	s.logger.Info("updating experiment", "experiment_id", id)

	var b updateBuilder
	if upd.Title != nil {
		b.set("title = :title", database.Param("title", *upd.Title))
	}
	if upd.Description != nil {
		b.set("description = :description", database.Param("description", *upd.Description))
	}
	if upd.ExperimentPlan != nil {
		b.set("experiment_plan = :experiment_plan", database.Param("experiment_plan", *upd.ExperimentPlan))
	}
	if upd.Status != nil {
		b.set("status = :status", database.Param("status", *upd.Status))
	}
	if upd.FISExperimentID != nil {
		b.set("fis_experiment_id = :fis_experiment_id", database.Param("fis_experiment_id", *upd.FISExperimentID))
	}
	if upd.ExperimentNotes != nil {
		b.set("experiment_notes = :experiment_notes", database.Param("experiment_notes", *upd.ExperimentNotes))
	}
	if upd.ScheduledFor != nil {
		b.set("scheduled_for = :scheduled_for::timestamp with time zone", database.Param("scheduled_for", *upd.ScheduledFor))
	}
	if upd.ExecutedAt != nil {
		b.set("executed_at = :executed_at::timestamp with time zone", database.Param("executed_at", *upd.ExecutedAt))
	}
	if upd.CompletedAt != nil {
		b.set("completed_at = :completed_at::timestamp with time zone", database.Param("completed_at", *upd.CompletedAt))
	}

	if b.empty() {
		s.logger.Warn("no fields provided for experiment update", "experiment_id", id)
		return Result{Kind: KindNotFound}
	}

	sql := b.build("experiment", "id = :experiment_id")
	params := append(b.params, database.Param("experiment_id", id))

	out, err := s.gw.Execute(ctx, sql, params)
	if err != nil {
		return Result{Kind: KindTransportError, Err: err}
	}
	if n := database.AffectedRows(out); n > 0 {
		return Result{Kind: KindOk, RowsAffected: n}
	}
	s.logger.Warn("no experiment found", "experiment_id", id)
	return Result{Kind: KindNotFound}
}
