package store

import (
	"context"
	"time"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"github.com/chaosprobe/chaosprobe/internal/database"
	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// NewInsight captures what an executed experiment taught us.
type NewInsight struct {
	ExperimentID        int64  `json:"experiment_id"`
	KeyLearnings        string `json:"key_learnings"`
	Recommendations     string `json:"recommendations"`
	RefinedHypotheses   string `json:"refined_hypotheses"`
	RiskAssessment      string `json:"risk_assessment"`
	KnowledgeGaps       string `json:"knowledge_gaps"`
	FollowUpExperiments string `json:"follow_up_experiments"`
}

// InsightsResult is the envelope returned by GetLearningHistory.
type InsightsResult struct {
	Success    bool                    `json:"success"`
	Insights   []types.LearningInsight `json:"insights"`
	Count      int                     `json:"count"`
	PeriodDays int                     `json:"period_days,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

const saveInsightsSQL = `
        INSERT INTO learning_insights (
            experiment_id, key_learnings, recommendations, refined_hypotheses,
            risk_assessment, knowledge_gaps, follow_up_experiments
        ) VALUES (
            :experiment_id, :key_learnings, :recommendations, :refined_hypotheses,
            :risk_assessment, :knowledge_gaps, :follow_up_experiments
        )`

// SaveLearningInsights appends one insight record for an experiment.
func (s *Store) SaveLearningInsights(ctx context.Context, in NewInsight) Result {
	s.logger.Info("saving learning insights", "experiment_id", in.ExperimentID)

	params := []rdstypes.SqlParameter{
		database.Param("experiment_id", in.ExperimentID),
		database.Param("key_learnings", in.KeyLearnings),
		database.Param("recommendations", in.Recommendations),
		database.Param("refined_hypotheses", in.RefinedHypotheses),
		database.Param("risk_assessment", in.RiskAssessment),
		database.Param("knowledge_gaps", in.KnowledgeGaps),
		database.Param("follow_up_experiments", in.FollowUpExperiments),
	}

	out, err := s.gw.Execute(ctx, saveInsightsSQL, params)
	if err != nil {
		return Result{Kind: KindTransportError, Err: err}
	}
	return Result{Kind: KindOk, RowsAffected: database.AffectedRows(out)}
}

const learningHistorySQL = `
        SELECT li.*, e.title as experiment_title
        FROM learning_insights li
        JOIN experiment e ON li.experiment_id = e.id
        WHERE li.created_at >= :threshold_date
        ORDER BY li.created_at DESC`

// GetLearningHistory retrieves insights recorded within the past daysBack
// days, newest first. daysBack defaults to 30.
func (s *Store) GetLearningHistory(ctx context.Context, daysBack int) *InsightsResult {
	if daysBack <= 0 {
		daysBack = 30
	}
	s.logger.Info("retrieving learning history", "days_back", daysBack)

	threshold := time.Now().UTC().AddDate(0, 0, -daysBack).Format(time.RFC3339)
	params := []rdstypes.SqlParameter{database.Param("threshold_date", threshold)}

	out, err := s.gw.Execute(ctx, learningHistorySQL, params)
	if err != nil {
		s.logger.Error("retrieving learning history failed", "error", err)
		return &InsightsResult{
			Success:  false,
			Insights: []types.LearningInsight{},
			Error:    "Failed to retrieve learning history: " + err.Error(),
		}
	}

	insights := make([]types.LearningInsight, 0, len(out.Records))
	for _, record := range out.Records {
		insights = append(insights, types.LearningInsight{
			ID:                  database.Long(record[0]),
			ExperimentID:        database.Long(record[1]),
			KeyLearnings:        database.Str(record[2]),
			Recommendations:     database.Str(record[3]),
			RefinedHypotheses:   database.Str(record[4]),
			RiskAssessment:      database.Str(record[5]),
			KnowledgeGaps:       database.Str(record[6]),
			FollowUpExperiments: database.Str(record[7]),
			CreatedAt:           database.Str(record[8]),
			ExperimentTitle:     database.Str(record[9]),
		})
	}

	return &InsightsResult{
		Success:    true,
		Insights:   insights,
		Count:      len(insights),
		PeriodDays: daysBack,
	}
}

// UpdateHypothesisStatus records an experiment's verdict on a hypothesis:
// status plus learning notes.
func (s *Store) UpdateHypothesisStatus(ctx context.Context, hypothesisID int64, status, learningNotes string) Result {
	s.logger.Info("updating hypothesis status", "hypothesis_id", hypothesisID, "status", status)
	return s.UpdateHypothesis(ctx, hypothesisID, HypothesisUpdate{
		Status: &status,
		Notes:  &learningNotes,
	})
}

// GetExperimentResults retrieves experiments for results analysis. A specific
// experimentID narrows the result to that one experiment.
func (s *Store) GetExperimentResults(ctx context.Context, experimentID *int64, status string, limit int64) *ExperimentsResult {
	s.logger.Info("retrieving experiment results", "experiment_id", experimentID, "status", status)

	result := s.GetExperiments(ctx, ExperimentFilter{Status: status, Limit: limit})
	if experimentID == nil || !result.Success {
		return result
	}

	filtered := result.Experiments[:0]
	for _, e := range result.Experiments {
		if e.ID == *experimentID {
			filtered = append(filtered, e)
		}
	}
	result.Experiments = filtered
	result.Count = len(filtered)
	return result
}
