package store

import (
	"context"
	"testing"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosprobe/chaosprobe/internal/testutil"
)

func TestInsertSystemComponent(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.IDResult(11))
	s := newTestStore(gw)

	id, err := s.InsertSystemComponent(context.Background(), NewComponent{
		Name: "cart-service",
		Type: "ECS Service",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	// description was not supplied, so it is bound as NULL
	desc := gw.ParamNamed("description")
	require.NotNil(t, desc)
	assert.True(t, fieldIsNull(desc.Value))
}

func TestGetSystemComponents(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.RowsResult(
		[]rdstypes.Field{
			testutil.LongCell(11),
			testutil.StrCell("cart-service"),
			testutil.StrCell("ECS Service"),
			testutil.StrCell("shopping cart backend"),
			testutil.StrCell("2026-08-01 10:00:00"),
			testutil.StrCell("2026-08-01 10:00:00"),
		},
	))
	s := newTestStore(gw)

	res := s.GetSystemComponents(context.Background(), "ECS Service", 0)
	require.True(t, res.Success)
	require.Len(t, res.Components, 1)
	assert.Equal(t, "cart-service", res.Components[0].Name)
	assert.Equal(t, "ECS Service", res.TypeFilter)

	sql := gw.LastSQL()
	assert.Contains(t, sql, "type = :component_type")
	assert.Contains(t, sql, "ORDER BY name LIMIT :limit")
	limit := gw.ParamNamed("limit")
	require.NotNil(t, limit)
	assert.Equal(t, int64(50), fieldLong(t, limit.Value))
}

func TestUpdateSystemComponent(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.UpdateResult(1))
	s := newTestStore(gw)

	res := s.UpdateSystemComponent(context.Background(), 11, ComponentUpdate{Type: strp("EKS Deployment")})
	require.True(t, res.OK())

	sql := gw.LastSQL()
	assert.Contains(t, sql, "type = :type")
	assert.NotContains(t, sql, "name = :name")
	assert.Contains(t, sql, "WHERE id = :component_id")
}

func TestBatchInsertSystemComponents_Validation(t *testing.T) {
	gw := &testutil.Gateway{}
	s := newTestStore(gw)

	res := s.BatchInsertSystemComponents(context.Background(), []NewComponent{
		{Name: "cart-service", Type: "ECS Service"},
		{Name: "orders-db", Type: " "},
	})
	assert.False(t, res.Success)
	assert.Equal(t, KindValidationError, res.Kind)
	assert.Contains(t, res.Error, "component 1 has invalid type")
	assert.Equal(t, 0, gw.CallCount())
}

func TestBatchInsertSystemComponents(t *testing.T) {
	gw := &testutil.Gateway{}
	gw.Respond(testutil.IDResult(1, 2))
	s := newTestStore(gw)

	res := s.BatchInsertSystemComponents(context.Background(), []NewComponent{
		{Name: "cart-service", Type: "ECS Service"},
		{Name: "orders-db", Type: "RDS PostgreSQL"},
	})
	require.True(t, res.Success)
	assert.Equal(t, []int64{1, 2}, res.InsertedIDs)
	assert.Contains(t, gw.LastSQL(), "(:name_0, :type_0, :description_0), (:name_1, :type_1, :description_1)")
}
