package database

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

// Result cells come back as tagged values accessed positionally; the helpers
// below decode one cell each. Column order in every SELECT list is part of
// the query contract.

// Long returns the cell as int64, or 0 for NULL or a non-long cell.
func Long(f rdstypes.Field) int64 {
	if v, ok := f.(*rdstypes.FieldMemberLongValue); ok {
		return v.Value
	}
	return 0
}

// LongPtr returns the cell as *int64, nil for NULL.
func LongPtr(f rdstypes.Field) *int64 {
	if v, ok := f.(*rdstypes.FieldMemberLongValue); ok {
		return &v.Value
	}
	return nil
}

// Str returns the cell as string, "" for NULL.
func Str(f rdstypes.Field) string {
	if v, ok := f.(*rdstypes.FieldMemberStringValue); ok {
		return v.Value
	}
	return ""
}

// StrPtr returns the cell as *string, nil for NULL.
func StrPtr(f rdstypes.Field) *string {
	if v, ok := f.(*rdstypes.FieldMemberStringValue); ok {
		return &v.Value
	}
	return nil
}

// Double returns the cell as float64. Numeric columns may arrive as either
// doubles or strings depending on the column type.
func Double(f rdstypes.Field) float64 {
	switch v := f.(type) {
	case *rdstypes.FieldMemberDoubleValue:
		return v.Value
	case *rdstypes.FieldMemberLongValue:
		return float64(v.Value)
	case *rdstypes.FieldMemberStringValue:
		var out float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(v.Value)), &out); err == nil {
			return out
		}
	}
	return 0
}

// Bool returns the cell as bool, false for NULL.
func Bool(f rdstypes.Field) bool {
	if v, ok := f.(*rdstypes.FieldMemberBooleanValue); ok {
		return v.Value
	}
	return false
}

// JSONMap parses a JSON object column. Malformed payloads are logged and
// degrade to an empty map rather than failing the whole row.
func JSONMap(f rdstypes.Field, fieldName string, logger *slog.Logger) map[string]any {
	s := Str(f)
	if strings.TrimSpace(s) == "" {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		logJSONFailure(logger, fieldName, s, err)
		return map[string]any{}
	}
	return out
}

// JSONStringMap parses a JSON object column with string values.
func JSONStringMap(f rdstypes.Field, fieldName string, logger *slog.Logger) map[string]string {
	s := Str(f)
	if strings.TrimSpace(s) == "" {
		return map[string]string{}
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		logJSONFailure(logger, fieldName, s, err)
		return map[string]string{}
	}
	return out
}

// JSONStringSlice parses a JSON array-of-strings column.
func JSONStringSlice(f rdstypes.Field, fieldName string, logger *slog.Logger) []string {
	s := Str(f)
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		logJSONFailure(logger, fieldName, s, err)
		return []string{}
	}
	return out
}

func logJSONFailure(logger *slog.Logger, fieldName, raw string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("failed to parse JSON column", "field", fieldName, "error", err, "raw", truncate(raw, 200))
}

// AffectedRows returns the number of rows an UPDATE/DELETE touched.
func AffectedRows(out *rdsdata.ExecuteStatementOutput) int64 {
	if out == nil {
		return 0
	}
	return out.NumberOfRecordsUpdated
}

// ReturnedIDs extracts ids from a RETURNING id result, in statement order.
func ReturnedIDs(out *rdsdata.ExecuteStatementOutput) []int64 {
	if out == nil {
		return nil
	}
	var ids []int64
	for _, record := range out.Records {
		if len(record) == 0 {
			continue
		}
		if id := Long(record[0]); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
