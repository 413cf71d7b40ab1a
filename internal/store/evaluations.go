package store

import (
	"context"
	"fmt"
	"strings"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"github.com/chaosprobe/chaosprobe/internal/database"
	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// NewEvaluation scores one hypothesis on the five quality criteria. Each
// criterion score must be in [1,5]; overall is the calculated average.
type NewEvaluation struct {
	HypothesisID       int64   `json:"hypothesis_id"`
	TestabilityScore   int64   `json:"testability_score"`
	SpecificityScore   int64   `json:"specificity_score"`
	RealismScore       int64   `json:"realism_score"`
	SafetyScore        int64   `json:"safety_score"`
	LearningValueScore int64   `json:"learning_value_score"`
	OverallScore       float64 `json:"overall_score"`
}

func (e NewEvaluation) validate() error {
	scores := []struct {
		name  string
		value int64
	}{
		{"testability", e.TestabilityScore},
		{"specificity", e.SpecificityScore},
		{"realism", e.RealismScore},
		{"safety", e.SafetyScore},
		{"learning_value", e.LearningValueScore},
	}
	for _, s := range scores {
		if s.value < 1 || s.value > 5 {
			return fmt.Errorf("%s_score must be an integer between 1 and 5", s.name)
		}
	}
	if e.OverallScore < 1 || e.OverallScore > 5 {
		return fmt.Errorf("overall_score must be a number between 1 and 5")
	}
	return nil
}

// EvaluationFilter selects evaluations for GetHypothesisEvaluations.
type EvaluationFilter struct {
	HypothesisIDs   []int64  `json:"hypothesis_ids,omitempty"`
	MinOverallScore *float64 `json:"min_overall_score,omitempty"`
	MaxOverallScore *float64 `json:"max_overall_score,omitempty"`
	Limit           int64    `json:"limit,omitempty"`
}

// EvaluationInsertResult is the envelope returned by InsertHypothesisEvaluation.
type EvaluationInsertResult struct {
	Success      bool   `json:"success"`
	Kind         Kind   `json:"-"`
	EvaluationID int64  `json:"evaluation_id,omitempty"`
	Error        string `json:"error,omitempty"`
	Message      string `json:"message"`
}

// EvaluationsResult is the envelope returned by GetHypothesisEvaluations.
type EvaluationsResult struct {
	Success     bool                         `json:"success"`
	Evaluations []types.HypothesisEvaluation `json:"evaluations"`
	Count       int                          `json:"count"`
	Filters     map[string]any               `json:"filters,omitempty"`
	Error       string                       `json:"error,omitempty"`
	Message     string                       `json:"message"`
}

const insertEvaluationSQL = `
        INSERT INTO hypothesis_evaluation (
            hypothesis_id, testability_score, specificity_score, realism_score,
            safety_score, learning_value_score, overall_score
        )
        VALUES (
            :hypothesis_id, :testability_score, :specificity_score, :realism_score,
            :safety_score, :learning_value_score, :overall_score
        )
        ON CONFLICT (hypothesis_id) DO UPDATE SET
            testability_score = EXCLUDED.testability_score,
            specificity_score = EXCLUDED.specificity_score,
            realism_score = EXCLUDED.realism_score,
            safety_score = EXCLUDED.safety_score,
            learning_value_score = EXCLUDED.learning_value_score,
            overall_score = EXCLUDED.overall_score,
            evaluation_timestamp = CURRENT_TIMESTAMP
        RETURNING id`

// InsertHypothesisEvaluation upserts one evaluation keyed by hypothesis_id.
// Scores are validated before any statement is built.
func (s *Store) InsertHypothesisEvaluation(ctx context.Context, e NewEvaluation) *EvaluationInsertResult {
	s.logger.Info("inserting hypothesis evaluation", "hypothesis_id", e.HypothesisID)

	if err := e.validate(); err != nil {
		s.logger.Error("evaluation validation failed", "error", err)
		return &EvaluationInsertResult{
			Kind:    KindValidationError,
			Error:   fmt.Sprintf("validation error: %v", err),
			Message: "Failed to insert evaluation due to validation error",
		}
	}

	params := []rdstypes.SqlParameter{
		database.Param("hypothesis_id", e.HypothesisID),
		database.Param("testability_score", e.TestabilityScore),
		database.Param("specificity_score", e.SpecificityScore),
		database.Param("realism_score", e.RealismScore),
		database.Param("safety_score", e.SafetyScore),
		database.Param("learning_value_score", e.LearningValueScore),
		database.Param("overall_score", e.OverallScore),
	}

	out, err := s.gw.Execute(ctx, insertEvaluationSQL, params)
	if err != nil {
		return &EvaluationInsertResult{
			Kind:    KindTransportError,
			Error:   err.Error(),
			Message: "Failed to insert hypothesis evaluation",
		}
	}
	ids := database.ReturnedIDs(out)
	if len(ids) == 0 {
		return &EvaluationInsertResult{
			Kind:    KindNotFound,
			Error:   "no id returned",
			Message: "Failed to insert hypothesis evaluation",
		}
	}

	return &EvaluationInsertResult{
		Success:      true,
		Kind:         KindOk,
		EvaluationID: ids[0],
		Message:      fmt.Sprintf("Successfully inserted/updated evaluation for hypothesis %d", e.HypothesisID),
	}
}

// BatchInsertHypothesisEvaluations upserts many evaluations in one
// multi-VALUES statement. Validation is all-or-nothing.
func (s *Store) BatchInsertHypothesisEvaluations(ctx context.Context, evaluations []NewEvaluation) BatchResult {
	s.logger.Info("batch inserting hypothesis evaluations", "count", len(evaluations))

	if len(evaluations) == 0 {
		return BatchResult{
			Kind:    KindValidationError,
			Error:   "No evaluations provided",
			Message: "No evaluations to insert",
		}
	}
	for i, e := range evaluations {
		if err := e.validate(); err != nil {
			return batchValidationError(
				fmt.Errorf("evaluation %d: %w", i, err),
				"Failed to validate batch insert data")
		}
	}

	valuesClauses := make([]string, len(evaluations))
	var params []rdstypes.SqlParameter
	for i, e := range evaluations {
		valuesClauses[i] = fmt.Sprintf(
			"(:hypothesis_id_%d, :testability_score_%d, :specificity_score_%d, :realism_score_%d, :safety_score_%d, :learning_value_score_%d, :overall_score_%d)",
			i, i, i, i, i, i, i)
		params = append(params,
			database.Param(fmt.Sprintf("hypothesis_id_%d", i), e.HypothesisID),
			database.Param(fmt.Sprintf("testability_score_%d", i), e.TestabilityScore),
			database.Param(fmt.Sprintf("specificity_score_%d", i), e.SpecificityScore),
			database.Param(fmt.Sprintf("realism_score_%d", i), e.RealismScore),
			database.Param(fmt.Sprintf("safety_score_%d", i), e.SafetyScore),
			database.Param(fmt.Sprintf("learning_value_score_%d", i), e.LearningValueScore),
			database.Param(fmt.Sprintf("overall_score_%d", i), e.OverallScore))
	}

	sql := fmt.Sprintf(`
        INSERT INTO hypothesis_evaluation (
            hypothesis_id, testability_score, specificity_score, realism_score,
            safety_score, learning_value_score, overall_score
        )
        VALUES %s
        ON CONFLICT (hypothesis_id) DO UPDATE SET
            testability_score = EXCLUDED.testability_score,
            specificity_score = EXCLUDED.specificity_score,
            realism_score = EXCLUDED.realism_score,
            safety_score = EXCLUDED.safety_score,
            learning_value_score = EXCLUDED.learning_value_score,
            overall_score = EXCLUDED.overall_score,
            evaluation_timestamp = CURRENT_TIMESTAMP`,
		strings.Join(valuesClauses, ", "))

	out, err := s.gw.Execute(ctx, sql, params)
	if err != nil {
		return batchTransportError(err, "Failed to batch insert evaluations")
	}

	affected := int(database.AffectedRows(out))
	s.logger.Info("batch inserted hypothesis evaluations", "affected", affected)
	return BatchResult{
		Success:        true,
		Kind:           KindOk,
		AffectedCount:  affected,
		RequestedCount: len(evaluations),
		Message:        fmt.Sprintf("Successfully inserted/updated %d evaluations", affected),
	}
}

const getEvaluationsBaseSQL = `
        SELECT he.id, he.hypothesis_id, h.title as hypothesis_title,
               he.testability_score, he.specificity_score, he.realism_score,
               he.safety_score, he.learning_value_score, he.overall_score,
               he.evaluation_timestamp
        FROM hypothesis_evaluation he
        JOIN hypothesis h ON he.hypothesis_id = h.id`

// GetHypothesisEvaluations retrieves evaluations with hypothesis titles,
// best-scored first.
func (s *Store) GetHypothesisEvaluations(ctx context.Context, f EvaluationFilter) *EvaluationsResult {
	s.logger.Info("getting hypothesis evaluations",
		"ids", f.HypothesisIDs, "min_score", f.MinOverallScore, "max_score", f.MaxOverallScore)

	var b queryBuilder
	if len(f.HypothesisIDs) > 0 {
		b.whereIn("he.hypothesis_id", "id", f.HypothesisIDs)
	}
	if f.MinOverallScore != nil {
		b.where("he.overall_score >= :min_score", database.Param("min_score", *f.MinOverallScore))
	}
	if f.MaxOverallScore != nil {
		b.where("he.overall_score <= :max_score", database.Param("max_score", *f.MaxOverallScore))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	sql := b.build(getEvaluationsBaseSQL, " ORDER BY he.overall_score DESC LIMIT :limit")
	b.params = append(b.params, database.Param("limit", limit))

	out, err := s.gw.Execute(ctx, sql, b.params)
	if err != nil {
		s.logger.Error("getting hypothesis evaluations failed", "error", err)
		return &EvaluationsResult{
			Success:     false,
			Evaluations: []types.HypothesisEvaluation{},
			Error:       err.Error(),
			Message:     "Failed to get evaluations from database",
		}
	}

	evaluations := make([]types.HypothesisEvaluation, 0, len(out.Records))
	for _, record := range out.Records {
		evaluations = append(evaluations, types.HypothesisEvaluation{
			ID:                  database.Long(record[0]),
			HypothesisID:        database.Long(record[1]),
			HypothesisTitle:     database.Str(record[2]),
			TestabilityScore:    database.Long(record[3]),
			SpecificityScore:    database.Long(record[4]),
			RealismScore:        database.Long(record[5]),
			SafetyScore:         database.Long(record[6]),
			LearningValueScore:  database.Long(record[7]),
			OverallScore:        database.Double(record[8]),
			EvaluationTimestamp: database.Str(record[9]),
		})
	}

	return &EvaluationsResult{
		Success:     true,
		Evaluations: evaluations,
		Count:       len(evaluations),
		Filters: map[string]any{
			"hypothesis_ids":    f.HypothesisIDs,
			"min_overall_score": f.MinOverallScore,
			"max_overall_score": f.MaxOverallScore,
		},
		Message: fmt.Sprintf("Retrieved %d evaluations", len(evaluations)),
	}
}
