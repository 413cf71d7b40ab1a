// Package store exposes the database access tools agents call: get, insert,
// update, and batch operations over each chaos engineering entity.
package store

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

// Executor runs one parameterized statement. Satisfied by *database.Gateway
// and by the in-memory test gateway.
type Executor interface {
	Execute(ctx context.Context, sql string, params []rdstypes.SqlParameter) (*rdsdata.ExecuteStatementOutput, error)
}

// Store provides entity access over an Executor.
type Store struct {
	gw     Executor
	logger *slog.Logger
}

// New creates a Store.
func New(gw Executor, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{gw: gw, logger: logger}
}
