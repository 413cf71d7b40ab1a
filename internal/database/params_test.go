package database

import (
	"testing"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamDispatchByType(t *testing.T) {
	strVal := "hello"
	intVal := int64(42)
	floatVal := 3.5

	tests := []struct {
		name  string
		value any
		want  rdstypes.Field
	}{
		{"nil", nil, &rdstypes.FieldMemberIsNull{Value: true}},
		{"bool", true, &rdstypes.FieldMemberBooleanValue{Value: true}},
		{"int", 7, &rdstypes.FieldMemberLongValue{Value: 7}},
		{"int32", int32(8), &rdstypes.FieldMemberLongValue{Value: 8}},
		{"int64", int64(9), &rdstypes.FieldMemberLongValue{Value: 9}},
		{"float32", float32(1.5), &rdstypes.FieldMemberDoubleValue{Value: 1.5}},
		{"float64", 2.25, &rdstypes.FieldMemberDoubleValue{Value: 2.25}},
		{"string", "abc", &rdstypes.FieldMemberStringValue{Value: "abc"}},
		{"string pointer", &strVal, &rdstypes.FieldMemberStringValue{Value: "hello"}},
		{"nil string pointer", (*string)(nil), &rdstypes.FieldMemberIsNull{Value: true}},
		{"int64 pointer", &intVal, &rdstypes.FieldMemberLongValue{Value: 42}},
		{"nil int64 pointer", (*int64)(nil), &rdstypes.FieldMemberIsNull{Value: true}},
		{"float64 pointer", &floatVal, &rdstypes.FieldMemberDoubleValue{Value: 3.5}},
		{"nil float64 pointer", (*float64)(nil), &rdstypes.FieldMemberIsNull{Value: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Param("p", tt.value)
			require.NotNil(t, p.Name)
			assert.Equal(t, "p", *p.Name)
			assert.Equal(t, tt.want, p.Value)
			assert.Empty(t, p.TypeHint)
		})
	}
}

func TestParamUnknownTypeCoercesToString(t *testing.T) {
	p := Param("p", []int{1, 2, 3})

	sv, ok := p.Value.(*rdstypes.FieldMemberStringValue)
	require.True(t, ok)
	assert.Equal(t, "[1 2 3]", sv.Value)
}

func TestJSONParamCarriesTypeHint(t *testing.T) {
	p := JSONParam("doc", map[string]any{"actions": map[string]any{"stop": 1}})

	assert.Equal(t, rdstypes.TypeHintJson, p.TypeHint)
	sv, ok := p.Value.(*rdstypes.FieldMemberStringValue)
	require.True(t, ok)
	assert.JSONEq(t, `{"actions":{"stop":1}}`, sv.Value)
}

func TestJSONParamNilBecomesNull(t *testing.T) {
	p := JSONParam("doc", nil)

	assert.Empty(t, p.TypeHint)
	assert.Equal(t, &rdstypes.FieldMemberIsNull{Value: true}, p.Value)
}
