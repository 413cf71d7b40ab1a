package database

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

// Param formats a named parameter for the RDS Data API. Dispatch is purely
// by type: nil (and nil pointers) become SQL NULL, unknown types fall back
// to string coercion.
func Param(name string, value any) rdstypes.SqlParameter {
	p := rdstypes.SqlParameter{Name: aws.String(name)}

	switch v := value.(type) {
	case nil:
		p.Value = &rdstypes.FieldMemberIsNull{Value: true}
	case bool:
		p.Value = &rdstypes.FieldMemberBooleanValue{Value: v}
	case int:
		p.Value = &rdstypes.FieldMemberLongValue{Value: int64(v)}
	case int32:
		p.Value = &rdstypes.FieldMemberLongValue{Value: int64(v)}
	case int64:
		p.Value = &rdstypes.FieldMemberLongValue{Value: v}
	case float32:
		p.Value = &rdstypes.FieldMemberDoubleValue{Value: float64(v)}
	case float64:
		p.Value = &rdstypes.FieldMemberDoubleValue{Value: v}
	case string:
		p.Value = &rdstypes.FieldMemberStringValue{Value: v}
	case *string:
		if v == nil {
			p.Value = &rdstypes.FieldMemberIsNull{Value: true}
		} else {
			p.Value = &rdstypes.FieldMemberStringValue{Value: *v}
		}
	case *int64:
		if v == nil {
			p.Value = &rdstypes.FieldMemberIsNull{Value: true}
		} else {
			p.Value = &rdstypes.FieldMemberLongValue{Value: *v}
		}
	case *int:
		if v == nil {
			p.Value = &rdstypes.FieldMemberIsNull{Value: true}
		} else {
			p.Value = &rdstypes.FieldMemberLongValue{Value: int64(*v)}
		}
	case *float64:
		if v == nil {
			p.Value = &rdstypes.FieldMemberIsNull{Value: true}
		} else {
			p.Value = &rdstypes.FieldMemberDoubleValue{Value: *v}
		}
	default:
		p.Value = &rdstypes.FieldMemberStringValue{Value: fmt.Sprintf("%v", v)}
	}

	return p
}

// JSONParam serializes value to JSON text and tags the parameter with the
// JSON type hint so the database casts it to the native JSON column type.
// A nil value becomes SQL NULL without a hint.
func JSONParam(name string, value any) rdstypes.SqlParameter {
	if value == nil {
		return Param(name, nil)
	}
	b, err := json.Marshal(value)
	if err != nil {
		// Unmarshalable values degrade to string coercion, same as Param.
		return Param(name, fmt.Sprintf("%v", value))
	}
	return rdstypes.SqlParameter{
		Name:     aws.String(name),
		TypeHint: rdstypes.TypeHintJson,
		Value:    &rdstypes.FieldMemberStringValue{Value: string(b)},
	}
}
