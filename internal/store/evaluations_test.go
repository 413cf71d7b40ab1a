package store

import (
	"context"
	"testing"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosprobe/chaosprobe/internal/testutil"
)

func validEvaluation() NewEvaluation {
	return NewEvaluation{
		HypothesisID:       3,
		TestabilityScore:   4,
		SpecificityScore:   3,
		RealismScore:       5,
		SafetyScore:        4,
		LearningValueScore: 3,
		OverallScore:       3.8,
	}
}

func TestInsertHypothesisEvaluation_Upsert(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.IDResult(9))
	s := newTestStore(gw)

	res := s.InsertHypothesisEvaluation(context.Background(), validEvaluation())
	require.True(t, res.Success)
	assert.Equal(t, int64(9), res.EvaluationID)

	sql := gw.LastSQL()
	assert.Contains(t, sql, "ON CONFLICT (hypothesis_id) DO UPDATE SET")
	assert.Contains(t, sql, "evaluation_timestamp = CURRENT_TIMESTAMP")
	assert.Contains(t, sql, "RETURNING id")
}

func TestInsertHypothesisEvaluation_ScoreRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewEvaluation)
		want   string
	}{
		{"testability too low", func(e *NewEvaluation) { e.TestabilityScore = 0 }, "testability_score"},
		{"safety too high", func(e *NewEvaluation) { e.SafetyScore = 6 }, "safety_score"},
		{"overall too high", func(e *NewEvaluation) { e.OverallScore = 5.1 }, "overall_score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &testutil.Gateway{}
			s := newTestStore(gw)

			e := validEvaluation()
			tt.mutate(&e)

			res := s.InsertHypothesisEvaluation(context.Background(), e)
			assert.False(t, res.Success)
			assert.Equal(t, KindValidationError, res.Kind)
			assert.Contains(t, res.Error, tt.want)
			assert.Equal(t, 0, gw.CallCount(), "invalid scores must be rejected before any SQL runs")
		})
	}
}

func TestBatchInsertHypothesisEvaluations(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.UpdateResult(2))
	s := newTestStore(gw)

	e1 := validEvaluation()
	e2 := validEvaluation()
	e2.HypothesisID = 4

	res := s.BatchInsertHypothesisEvaluations(context.Background(), []NewEvaluation{e1, e2})
	require.True(t, res.Success)
	assert.Equal(t, 2, res.AffectedCount)
	assert.Equal(t, 2, res.RequestedCount)
	assert.Contains(t, gw.LastSQL(), "ON CONFLICT (hypothesis_id) DO UPDATE SET")
}

func TestBatchInsertHypothesisEvaluations_ValidationIsAtomic(t *testing.T) {
	gw := &testutil.Gateway{}
	s := newTestStore(gw)

	bad := validEvaluation()
	bad.RealismScore = 0

	res := s.BatchInsertHypothesisEvaluations(context.Background(), []NewEvaluation{validEvaluation(), bad})
	assert.False(t, res.Success)
	assert.Equal(t, KindValidationError, res.Kind)
	assert.Contains(t, res.Error, "evaluation 1")
	assert.Equal(t, 0, gw.CallCount())
}

func TestGetHypothesisEvaluations(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.RowsResult(
		[]rdstypes.Field{
			testutil.LongCell(1),
			testutil.LongCell(3),
			testutil.StrCell("cart latency under AZ failure"),
			testutil.LongCell(4),
			testutil.LongCell(3),
			testutil.LongCell(5),
			testutil.LongCell(4),
			testutil.LongCell(3),
			testutil.DoubleCell(3.8),
			testutil.StrCell("2026-08-01 10:00:00"),
		},
	))
	s := newTestStore(gw)

	min := 3.0
	res := s.GetHypothesisEvaluations(context.Background(), EvaluationFilter{
		HypothesisIDs:   []int64{3},
		MinOverallScore: &min,
	})
	require.True(t, res.Success)
	require.Len(t, res.Evaluations, 1)
	assert.Equal(t, 3.8, res.Evaluations[0].OverallScore)
	assert.Equal(t, "cart latency under AZ failure", res.Evaluations[0].HypothesisTitle)

	sql := gw.LastSQL()
	assert.Contains(t, sql, "he.hypothesis_id IN (:id_0)")
	assert.Contains(t, sql, "he.overall_score >= :min_score")
	assert.Contains(t, sql, "ORDER BY he.overall_score DESC")
}
