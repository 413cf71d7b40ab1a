package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosprobe/chaosprobe/internal/testutil"
	"github.com/chaosprobe/chaosprobe/pkg/types"
)

func strp(s string) *string { return &s }

func i64p(v int64) *int64 { return &v }

func newTestStore(gw *testutil.Gateway) *Store {
	return New(gw, testutil.Logger())
}

func TestInsertHypothesis(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.IDResult(42))
	s := newTestStore(gw)

	id, err := s.InsertHypothesis(context.Background(), NewHypothesis{
		Title:       "API pods survive node loss",
		FailureMode: strp("node termination"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	assert.Contains(t, gw.LastSQL(), "INSERT INTO hypothesis")
	assert.Contains(t, gw.LastSQL(), "RETURNING id")

	// unset status and priority fall back to defaults
	status := gw.ParamNamed("status")
	require.NotNil(t, status)
	assert.Equal(t, types.HypothesisProposed, fieldString(t, status.Value))
	priority := gw.ParamNamed("priority")
	require.NotNil(t, priority)
	assert.Equal(t, int64(1), fieldLong(t, priority.Value))
}

func TestUpdateHypothesis_OnlySuppliedFields(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.UpdateResult(1))
	s := newTestStore(gw)

	res := s.UpdateHypothesis(context.Background(), 7, HypothesisUpdate{
		Status: strp(types.HypothesisPrioritized),
	})
	require.True(t, res.OK())
	assert.Equal(t, int64(1), res.RowsAffected)

	sql := gw.LastSQL()
	assert.Contains(t, sql, "status = :status")
	assert.Contains(t, sql, "updated_at = CURRENT_TIMESTAMP")
	assert.NotContains(t, sql, "title = :title")
	assert.NotContains(t, sql, "priority = :priority")
}

func TestUpdateHypothesis_NoFieldsIsNoOp(t *testing.T) {
	gw := &testutil.Gateway{}
	s := newTestStore(gw)

	res := s.UpdateHypothesis(context.Background(), 7, HypothesisUpdate{})
	assert.Equal(t, KindNotFound, res.Kind)
	assert.Equal(t, 0, gw.CallCount(), "no statement should reach the database")
}

func TestUpdateHypothesis_NotFound(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.UpdateResult(0))
	s := newTestStore(gw)

	res := s.UpdateHypothesis(context.Background(), 999, HypothesisUpdate{Status: strp("validated")})
	assert.Equal(t, KindNotFound, res.Kind)
	assert.False(t, res.OK())
}

func TestGetHypotheses_DefaultLimit(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.RowsResult())
	s := newTestStore(gw)

	res := s.GetHypotheses(context.Background(), HypothesisFilter{})
	require.True(t, res.Success)
	assert.Equal(t, 0, res.Count)

	assert.Contains(t, gw.LastSQL(), "ORDER BY h.priority ASC, h.created_at DESC LIMIT :limit")
	limit := gw.ParamNamed("limit")
	require.NotNil(t, limit)
	assert.Equal(t, int64(50), fieldLong(t, limit.Value))
}

func TestGetHypotheses_FilterSQL(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.RowsResult())
	s := newTestStore(gw)

	topN := int64(5)
	res := s.GetHypotheses(context.Background(), HypothesisFilter{
		IDs:         []int64{1, 2, 3},
		Status:      types.HypothesisProposed,
		Service:     "cart",
		TopN:        &topN,
		MinPriority: i64p(1),
		MaxPriority: i64p(3),
	})
	require.True(t, res.Success)

	sql := gw.LastSQL()
	assert.Contains(t, sql, "h.id IN (:id_0,:id_1,:id_2)")
	assert.Contains(t, sql, "h.status = :status")
	assert.Contains(t, sql, "UPPER(sc.type) LIKE UPPER(:service_filter_0)")
	assert.Contains(t, sql, "UPPER(h.title) LIKE UPPER(:service_filter_1)")
	assert.Contains(t, sql, "UPPER(h.description) LIKE UPPER(:service_filter_2)")
	assert.Contains(t, sql, "h.priority BETWEEN :min_priority AND :max_priority")
	assert.Contains(t, sql, "LIMIT :top_n")

	needle := gw.ParamNamed("service_filter_0")
	require.NotNil(t, needle)
	assert.Equal(t, "%cart%", fieldString(t, needle.Value))
}

func TestGetHypotheses_ParsesRows(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.RowsResult(
		[]rdstypes.Field{
			testutil.LongCell(1),
			testutil.StrCell("cart latency under AZ failure"),
			testutil.StrCell("desc"),
			testutil.NullCell(),
			testutil.StrCell("steady state"),
			testutil.StrCell("az outage"),
			testutil.StrCell("proposed"),
			testutil.LongCell(2),
			testutil.NullCell(),
			testutil.LongCell(11),
			testutil.StrCell("2026-08-01 10:00:00"),
			testutil.StrCell("2026-08-01 10:00:00"),
			testutil.StrCell("cart-service"),
			testutil.StrCell("ECS Service"),
		},
	))
	s := newTestStore(gw)

	res := s.GetHypotheses(context.Background(), HypothesisFilter{})
	require.True(t, res.Success)
	require.Len(t, res.Hypotheses, 1)

	h := res.Hypotheses[0]
	assert.Equal(t, int64(1), h.ID)
	assert.Equal(t, "cart latency under AZ failure", h.Title)
	assert.Nil(t, h.Persona)
	assert.Equal(t, int64(2), h.Priority)
	require.NotNil(t, h.SystemComponentID)
	assert.Equal(t, int64(11), *h.SystemComponentID)
	require.NotNil(t, h.ComponentType)
	assert.Equal(t, "ECS Service", *h.ComponentType)
}

func TestGetHypotheses_TransportError(t *testing.T) {
	gw := &testutil.Gateway{Err: errors.New("rds unavailable")}
	s := newTestStore(gw)

	res := s.GetHypotheses(context.Background(), HypothesisFilter{})
	assert.False(t, res.Success)
	assert.Empty(t, res.Hypotheses)
	assert.Contains(t, res.Error, "rds unavailable")
}

func TestBatchInsertHypotheses(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.IDResult(10, 11, 12))
	s := newTestStore(gw)

	res := s.BatchInsertHypotheses(context.Background(), []NewHypothesis{
		{Title: "a"}, {Title: "b"}, {Title: "c"},
	})
	require.True(t, res.Success)
	assert.Equal(t, 3, res.AffectedCount)
	assert.Equal(t, []int64{10, 11, 12}, res.InsertedIDs)

	sql := gw.LastSQL()
	assert.Equal(t, 3, strings.Count(sql, "(:title_"))
	assert.Contains(t, sql, "RETURNING id")
}

func TestBatchInsertHypotheses_ValidationIsAtomic(t *testing.T) {
	gw := &testutil.Gateway{}
	s := newTestStore(gw)

	res := s.BatchInsertHypotheses(context.Background(), []NewHypothesis{
		{Title: "valid"}, {Title: "  "},
	})
	assert.False(t, res.Success)
	assert.Equal(t, KindValidationError, res.Kind)
	assert.Contains(t, res.Error, "hypothesis 1 has invalid title")
	assert.Equal(t, 0, gw.CallCount(), "a malformed entry must reject the whole batch")
}

func TestBatchInsertHypotheses_Empty(t *testing.T) {
	gw := &testutil.Gateway{}
	s := newTestStore(gw)

	res := s.BatchInsertHypotheses(context.Background(), nil)
	assert.False(t, res.Success)
	assert.Equal(t, KindValidationError, res.Kind)
	assert.Equal(t, 0, gw.CallCount())
}

func TestBatchUpdateHypothesisPriorities(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.UpdateResult(2))
	s := newTestStore(gw)

	res := s.BatchUpdateHypothesisPriorities(context.Background(), []PriorityUpdate{
		{HypothesisID: 1, Priority: 2},
		{HypothesisID: 2, Priority: 1},
	})
	require.True(t, res.Success)
	assert.Equal(t, 2, res.AffectedCount)
	assert.Equal(t, 2, res.RequestedCount)

	sql := gw.LastSQL()
	assert.Contains(t, sql, "SET priority = CASE id")
	assert.Contains(t, sql, "WHEN :id_0 THEN :priority_0")
	assert.Contains(t, sql, "WHEN :id_1 THEN :priority_1")
	assert.Contains(t, sql, "WHERE id IN (:id_0,:id_1)")
	assert.Contains(t, sql, "updated_at = CURRENT_TIMESTAMP")
}

func TestBatchUpdateHypothesisPriorities_Validation(t *testing.T) {
	gw := &testutil.Gateway{}
	s := newTestStore(gw)

	res := s.BatchUpdateHypothesisPriorities(context.Background(), []PriorityUpdate{
		{HypothesisID: 1, Priority: 2},
		{HypothesisID: 0, Priority: 1},
	})
	assert.Equal(t, KindValidationError, res.Kind)
	assert.Equal(t, 0, gw.CallCount())
}

func TestBatchUpdateHypothesisPriorities_NoneMatched(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.UpdateResult(0))
	s := newTestStore(gw)

	res := s.BatchUpdateHypothesisPriorities(context.Background(), []PriorityUpdate{
		{HypothesisID: 404, Priority: 1},
	})
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)
}
