package database

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
)

// RDSDataAPI is the subset of the RDS Data API client used by the gateway.
type RDSDataAPI interface {
	ExecuteStatement(ctx context.Context, input *rdsdata.ExecuteStatementInput, optFns ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error)
}

// CloudFormationAPI is the subset of the CloudFormation client used to
// resolve connection coordinates and exported role ARNs.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, input *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	ListExports(ctx context.Context, input *cloudformation.ListExportsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ListExportsOutput, error)
}
