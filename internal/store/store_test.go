package store

import (
	"testing"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/stretchr/testify/require"
)

// fieldString unwraps a recorded string parameter value.
func fieldString(t *testing.T, f rdstypes.Field) string {
	t.Helper()
	v, ok := f.(*rdstypes.FieldMemberStringValue)
	require.True(t, ok, "expected string field, got %T", f)
	return v.Value
}

// fieldLong unwraps a recorded long parameter value.
func fieldLong(t *testing.T, f rdstypes.Field) int64 {
	t.Helper()
	v, ok := f.(*rdstypes.FieldMemberLongValue)
	require.True(t, ok, "expected long field, got %T", f)
	return v.Value
}

// fieldIsNull reports whether a recorded parameter was SQL NULL.
func fieldIsNull(f rdstypes.Field) bool {
	_, ok := f.(*rdstypes.FieldMemberIsNull)
	return ok
}
