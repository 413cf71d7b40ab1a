// Package discovery finds the AWS resources belonging to the workload under
// test, scoped by the configured workload tags.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	tagging "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// TaggingAPI is the resource groups tagging surface used for discovery.
type TaggingAPI interface {
	GetResources(ctx context.Context, params *tagging.GetResourcesInput, optFns ...func(*tagging.Options)) (*tagging.GetResourcesOutput, error)
}

// STSAPI identifies the account experiments run in.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Resource is one discovered AWS resource.
type Resource struct {
	ARN     string            `json:"arn"`
	Service string            `json:"service"`
	Tags    map[string]string `json:"tags"`
}

// Discoverer lists workload resources and the account identity.
type Discoverer struct {
	tagging TaggingAPI
	sts     STSAPI
	logger  *slog.Logger
}

func New(awsCfg aws.Config, logger *slog.Logger) *Discoverer {
	return NewWithClients(tagging.NewFromConfig(awsCfg), sts.NewFromConfig(awsCfg), logger)
}

func NewWithClients(taggingClient TaggingAPI, stsClient STSAPI, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{tagging: taggingClient, sts: stsClient, logger: logger}
}

// ListTaggedResources returns the resources matching the given workload tag
// filters. An empty filter list returns all tagged resources in the region,
// matching the "no tags configured, consider everything" default.
func (d *Discoverer) ListTaggedResources(ctx context.Context, workloadTags []map[string]string) ([]Resource, error) {
	var filters []taggingtypes.TagFilter
	for _, tag := range workloadTags {
		for key, value := range tag {
			filters = append(filters, taggingtypes.TagFilter{
				Key:    aws.String(key),
				Values: []string{value},
			})
		}
	}

	var resources []Resource
	var token *string
	for {
		out, err := d.tagging.GetResources(ctx, &tagging.GetResourcesInput{
			TagFilters:      filters,
			PaginationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("listing tagged resources: %w", err)
		}
		for _, mapping := range out.ResourceTagMappingList {
			arn := aws.ToString(mapping.ResourceARN)
			tags := make(map[string]string, len(mapping.Tags))
			for _, t := range mapping.Tags {
				tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
			}
			resources = append(resources, Resource{
				ARN:     arn,
				Service: serviceFromARN(arn),
				Tags:    tags,
			})
		}
		token = out.PaginationToken
		if token == nil || *token == "" {
			break
		}
	}

	d.logger.Info("discovered workload resources",
		"tool_output", fmt.Sprintf("%d resources, %d tag filters", len(resources), len(filters)))
	return resources, nil
}

// AccountID returns the AWS account id of the active credentials.
func (d *Discoverer) AccountID(ctx context.Context) (string, error) {
	out, err := d.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("resolving caller identity: %w", err)
	}
	return aws.ToString(out.Account), nil
}

// serviceFromARN extracts the service segment of an ARN
// (arn:partition:service:region:account:resource).
func serviceFromARN(arn string) string {
	parts := strings.SplitN(arn, ":", 4)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
