// Package database executes parameterized SQL against the Aurora cluster
// through the RDS Data API, resolving connection coordinates from the
// deployment stack's CloudFormation outputs.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"github.com/chaosprobe/chaosprobe/internal/metrics"
)

// Deployment stack coordinates. The stack exports the cluster and secret
// ARNs the Data API needs; the database name is fixed at provisioning time.
const (
	StackName    = "ChaosAgentDatabaseStack"
	DatabaseName = "chaosagent"

	fisRoleArnExport  = "ChaosAgentFISExecutionRoleArn"
	fisRoleNameExport = "ChaosAgentFISExecutionRoleName"
	fisRoleDefault    = "ChaosAgentFISExecutionRole"
)

// TransportError wraps any failure from the underlying transport. A
// statement either fully executes or the caller sees one of these; partial
// success is never reported.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("database error %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type connection struct {
	clusterARN string
	secretARN  string
	database   string
}

// Gateway executes SQL statements against the chaos agent database. The
// connection triple is resolved once from stack outputs and cached for the
// lifetime of the gateway.
type Gateway struct {
	data   RDSDataAPI
	cfn    CloudFormationAPI
	logger *slog.Logger

	mu   sync.Mutex
	conn *connection
}

// New creates a Gateway from an AWS config.
func New(awsCfg aws.Config, logger *slog.Logger) *Gateway {
	return NewWithClients(rdsdata.NewFromConfig(awsCfg), cloudformation.NewFromConfig(awsCfg), logger)
}

// NewWithClients creates a Gateway with explicit API clients.
func NewWithClients(data RDSDataAPI, cfn CloudFormationAPI, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{data: data, cfn: cfn, logger: logger}
}

// Execute runs one parameterized SQL statement and returns the raw response.
// Any transport failure is returned as a *TransportError.
func (g *Gateway) Execute(ctx context.Context, sql string, params []rdstypes.SqlParameter) (*rdsdata.ExecuteStatementOutput, error) {
	conn, err := g.resolveConnection(ctx)
	if err != nil {
		metrics.StatementErrors.Add(1)
		return nil, err
	}

	input := &rdsdata.ExecuteStatementInput{
		ResourceArn: aws.String(conn.clusterARN),
		SecretArn:   aws.String(conn.secretARN),
		Database:    aws.String(conn.database),
		Sql:         aws.String(sql),
	}
	if len(params) > 0 {
		input.Parameters = params
	}

	g.logger.Debug("executing SQL", "sql", truncate(sql, 100))
	out, err := g.data.ExecuteStatement(ctx, input)
	if err != nil {
		metrics.StatementErrors.Add(1)
		g.logger.Error("SQL execution failed", "error", err)
		return nil, &TransportError{Op: "executing statement", Err: err}
	}

	metrics.StatementsExecuted.Add(1)
	return out, nil
}

// StackOutputs returns the deployment stack's outputs as a map.
func (g *Gateway) StackOutputs(ctx context.Context) (map[string]string, error) {
	resp, err := g.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(StackName),
	})
	if err != nil {
		return nil, fmt.Errorf("describing stack %s: %w", StackName, err)
	}
	if len(resp.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found", StackName)
	}

	outputs := make(map[string]string)
	for _, o := range resp.Stacks[0].Outputs {
		if o.OutputKey != nil && o.OutputValue != nil {
			outputs[*o.OutputKey] = *o.OutputValue
		}
	}
	return outputs, nil
}

// FISExecutionRole resolves the pre-generated FIS execution role from the
// deployment stack's CloudFormation exports.
func (g *Gateway) FISExecutionRole(ctx context.Context) (arn, name string, err error) {
	var token *string
	for {
		resp, err := g.cfn.ListExports(ctx, &cloudformation.ListExportsInput{NextToken: token})
		if err != nil {
			return "", "", fmt.Errorf("listing stack exports: %w", err)
		}
		for _, exp := range resp.Exports {
			if exp.Name == nil || exp.Value == nil {
				continue
			}
			switch *exp.Name {
			case fisRoleArnExport:
				arn = *exp.Value
			case fisRoleNameExport:
				name = *exp.Value
			}
		}
		if resp.NextToken == nil {
			break
		}
		token = resp.NextToken
	}

	if arn == "" {
		return "", "", fmt.Errorf("FIS execution role ARN not found in CloudFormation exports; deploy %s to create it", StackName)
	}
	if name == "" {
		name = fisRoleDefault
	}
	return arn, name, nil
}

// ResetConnection clears the cached connection triple. Test hook only.
func (g *Gateway) ResetConnection() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conn = nil
}

func (g *Gateway) resolveConnection(ctx context.Context) (*connection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn != nil {
		return g.conn, nil
	}

	outputs, err := g.StackOutputs(ctx)
	if err != nil {
		return nil, &TransportError{Op: "resolving connection", Err: err}
	}

	clusterARN := outputs["ClusterArn"]
	secretARN := outputs["SecretArn"]
	if clusterARN == "" {
		return nil, &TransportError{Op: "resolving connection", Err: fmt.Errorf("ClusterArn not found in stack outputs")}
	}
	if secretARN == "" {
		return nil, &TransportError{Op: "resolving connection", Err: fmt.Errorf("SecretArn not found in stack outputs")}
	}

	g.conn = &connection{clusterARN: clusterARN, secretARN: secretARN, database: DatabaseName}
	g.logger.Info("cached database connection from stack outputs", "stack", StackName)
	return g.conn, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
