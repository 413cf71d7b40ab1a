package store

import (
	"context"
	"testing"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosprobe/chaosprobe/internal/testutil"
)

func TestInsertExperiment(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.IDResult(5))
	s := newTestStore(gw)

	id, err := s.InsertExperiment(context.Background(), NewExperiment{
		Name:           "Terminate cart service task",
		HypothesisID:   3,
		Description:    "Stop one ECS task and observe recovery",
		ExperimentPlan: "1. baseline 2. inject 3. verify",
		FISConfiguration: map[string]any{
			"description": "ecs task stop",
			"actions":     map[string]any{},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	sql := gw.LastSQL()
	assert.Contains(t, sql, ":fis_configuration::jsonb")
	assert.Contains(t, sql, ":fis_role_configuration::jsonb")

	// status defaults to draft
	status := gw.ParamNamed("status")
	require.NotNil(t, status)
	assert.Equal(t, "draft", fieldString(t, status.Value))

	// the FIS document travels as a JSON string with the json type hint
	cfg := gw.ParamNamed("fis_configuration")
	require.NotNil(t, cfg)
	assert.Equal(t, rdstypes.TypeHintJson, cfg.TypeHint)
	assert.Contains(t, fieldString(t, cfg.Value), `"description":"ecs task stop"`)

	// absent role configuration becomes SQL NULL
	role := gw.ParamNamed("fis_role_configuration")
	require.NotNil(t, role)
	assert.True(t, fieldIsNull(role.Value))
}

func TestGetExperiments_ParsesJSONColumns(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.RowsResult(
		[]rdstypes.Field{
			testutil.LongCell(5),
			testutil.LongCell(3),
			testutil.StrCell("Terminate cart service task"),
			testutil.StrCell("Stop one ECS task"),
			testutil.StrCell("plan"),
			testutil.StrCell(`{"description":"ecs task stop"}`),
			testutil.NullCell(),
			testutil.StrCell("draft"),
			testutil.StrCell("2026-08-01 10:00:00"),
			testutil.StrCell("2026-08-01 10:00:00"),
			testutil.StrCell("cart latency under AZ failure"),
			testutil.StrCell("hypothesis description"),
			testutil.StrCell("cart-service"),
			testutil.StrCell("ECS Service"),
		},
	))
	s := newTestStore(gw)

	res := s.GetExperiments(context.Background(), ExperimentFilter{Status: "draft"})
	require.True(t, res.Success)
	require.Len(t, res.Experiments, 1)

	e := res.Experiments[0]
	assert.Equal(t, "ecs task stop", e.FISConfiguration["description"])
	assert.Empty(t, e.FISRoleConfiguration)
	require.NotNil(t, e.HypothesisTitle)
	assert.Equal(t, "cart latency under AZ failure", *e.HypothesisTitle)

	sql := gw.LastSQL()
	assert.Contains(t, sql, "e.status = :status")
	assert.Contains(t, sql, "LEFT JOIN hypothesis h ON e.hypothesis_id = h.id")
	assert.Contains(t, sql, "ORDER BY e.created_at DESC LIMIT :limit")
}

func TestGetExperiments_MalformedJSONDegrades(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.RowsResult(
		[]rdstypes.Field{
			testutil.LongCell(5),
			testutil.LongCell(3),
			testutil.StrCell("t"),
			testutil.StrCell("d"),
			testutil.StrCell("p"),
			testutil.StrCell(`{not json`),
			testutil.NullCell(),
			testutil.StrCell("draft"),
			testutil.StrCell(""),
			testutil.StrCell(""),
			testutil.NullCell(),
			testutil.NullCell(),
			testutil.NullCell(),
			testutil.NullCell(),
		},
	))
	s := newTestStore(gw)

	res := s.GetExperiments(context.Background(), ExperimentFilter{})
	require.True(t, res.Success, "one bad JSON column must not fail the query")
	require.Len(t, res.Experiments, 1)
	assert.Empty(t, res.Experiments[0].FISConfiguration)
}

func TestUpdateExperiment_TimestampCasts(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.UpdateResult(1))
	s := newTestStore(gw)

	res := s.UpdateExperiment(context.Background(), 5, ExperimentUpdate{
		Status:          strp("completed"),
		FISExperimentID: strp("EXP123"),
		CompletedAt:     strp("2026-08-01T12:00:00Z"),
	})
	require.True(t, res.OK())

	sql := gw.LastSQL()
	assert.Contains(t, sql, "completed_at = :completed_at::timestamp with time zone")
	assert.Contains(t, sql, "fis_experiment_id = :fis_experiment_id")
	assert.NotContains(t, sql, "scheduled_for")
	assert.Contains(t, sql, "WHERE id = :experiment_id")
}

func TestUpdateExperiment_NoFieldsIsNoOp(t *testing.T) {
	gw := &testutil.Gateway{}
	s := newTestStore(gw)

	res := s.UpdateExperiment(context.Background(), 5, ExperimentUpdate{})
	assert.Equal(t, KindNotFound, res.Kind)
	assert.Equal(t, 0, gw.CallCount())
}
