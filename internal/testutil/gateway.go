// Package testutil provides in-memory doubles for the AWS clients chaosprobe
// talks to in production.
package testutil

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

// Statement is one recorded Execute call.
type Statement struct {
	SQL    string
	Params []rdstypes.SqlParameter
}

// Gateway is a call-recording store.Executor. Responses are consumed in
// FIFO order; once drained, Execute returns an empty output. Setting Err
// makes every call fail.
type Gateway struct {
	mu        sync.Mutex
	calls     []Statement
	responses []*rdsdata.ExecuteStatementOutput

	Err         error
	ExecuteFunc func(ctx context.Context, sql string, params []rdstypes.SqlParameter) (*rdsdata.ExecuteStatementOutput, error)
}

func (g *Gateway) Execute(ctx context.Context, sql string, params []rdstypes.SqlParameter) (*rdsdata.ExecuteStatementOutput, error) {
	g.mu.Lock()
	g.calls = append(g.calls, Statement{SQL: sql, Params: params})
	g.mu.Unlock()

	if g.ExecuteFunc != nil {
		return g.ExecuteFunc(ctx, sql, params)
	}
	if g.Err != nil {
		return nil, g.Err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.responses) == 0 {
		return &rdsdata.ExecuteStatementOutput{}, nil
	}
	out := g.responses[0]
	g.responses = g.responses[1:]
	return out, nil
}

// Respond queues outputs for subsequent Execute calls.
func (g *Gateway) Respond(outputs ...*rdsdata.ExecuteStatementOutput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, outputs...)
}

// Calls returns a copy of the recorded statements.
func (g *Gateway) Calls() []Statement {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Statement, len(g.calls))
	copy(out, g.calls)
	return out
}

// CallCount returns how many statements were executed.
func (g *Gateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// LastSQL returns the SQL of the most recent statement, "" if none ran.
func (g *Gateway) LastSQL() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return ""
	}
	return g.calls[len(g.calls)-1].SQL
}

// ParamNamed returns the recorded parameter with the given name from the
// most recent statement, nil if absent.
func (g *Gateway) ParamNamed(name string) *rdstypes.SqlParameter {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return nil
	}
	for _, p := range g.calls[len(g.calls)-1].Params {
		if p.Name != nil && *p.Name == name {
			return &p
		}
	}
	return nil
}

// IDResult builds a RETURNING id output.
func IDResult(ids ...int64) *rdsdata.ExecuteStatementOutput {
	records := make([][]rdstypes.Field, len(ids))
	for i, id := range ids {
		records[i] = []rdstypes.Field{LongCell(id)}
	}
	return &rdsdata.ExecuteStatementOutput{Records: records}
}

// UpdateResult builds an output reporting n updated rows.
func UpdateResult(n int64) *rdsdata.ExecuteStatementOutput {
	return &rdsdata.ExecuteStatementOutput{NumberOfRecordsUpdated: n}
}

// RowsResult builds a SELECT output from prebuilt rows.
func RowsResult(rows ...[]rdstypes.Field) *rdsdata.ExecuteStatementOutput {
	return &rdsdata.ExecuteStatementOutput{Records: rows}
}

// Cell constructors for assembling rows.

func LongCell(v int64) rdstypes.Field { return &rdstypes.FieldMemberLongValue{Value: v} }

func StrCell(v string) rdstypes.Field { return &rdstypes.FieldMemberStringValue{Value: v} }

func DoubleCell(v float64) rdstypes.Field { return &rdstypes.FieldMemberDoubleValue{Value: v} }

func BoolCell(v bool) rdstypes.Field { return &rdstypes.FieldMemberBooleanValue{Value: v} }

func NullCell() rdstypes.Field { return &rdstypes.FieldMemberIsNull{Value: true} }
