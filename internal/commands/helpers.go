// Package commands implements the CLI subcommands for the chaosprobe binary.
package commands

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/chaosprobe/chaosprobe/internal/config"
	"github.com/chaosprobe/chaosprobe/internal/database"
	"github.com/chaosprobe/chaosprobe/internal/discovery"
	"github.com/chaosprobe/chaosprobe/internal/fis"
	"github.com/chaosprobe/chaosprobe/internal/observability"
	"github.com/chaosprobe/chaosprobe/internal/store"
	"github.com/chaosprobe/chaosprobe/internal/workflow"
)

// services bundles everything a subcommand needs against one AWS region.
type services struct {
	cfg     *config.Config
	gateway *database.Gateway
	store   *store.Store
	deps    workflow.Deps
	awsCfg  aws.Config
}

// buildServices resolves the region and constructs the AWS-backed service
// layer shared by the subcommands.
func buildServices(ctx context.Context, regionOverride string) (*services, error) {
	cfg := config.New(observability.Logger("config"))
	if regionOverride != "" {
		if err := cfg.SetRegionOverride(regionOverride); err != nil {
			return nil, err
		}
	}
	region := cfg.Region(ctx)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	gw := database.New(awsCfg, observability.Logger("database"))
	st := store.New(gw, observability.Logger("store"))

	return &services{
		cfg:     cfg,
		gateway: gw,
		store:   st,
		awsCfg:  awsCfg,
		deps: workflow.Deps{
			Store:     st,
			Config:    cfg,
			Bedrock:   bedrockruntime.NewFromConfig(awsCfg),
			Roles:     gw,
			Discovery: discovery.New(awsCfg, observability.Logger("discovery")),
			FIS:       fis.New(awsCfg, observability.Logger("fis")),
		},
	}, nil
}
