// Package config resolves region, model ids, and workload tags for a single
// run. All resolution state lives on the Config value itself; construct a
// fresh Config per process (or per test) instead of relying on globals.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// Default model ids per role.
const (
	defaultModel      = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
	defaultSmallModel = "us.anthropic.claude-3-5-haiku-20241022-v1:0"
	defaultLargeModel = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	fallbackRegion = "us-east-1"

	// Deployment stack probed when no region is configured anywhere.
	stackName = "ChaosAgentDatabaseStack"
)

// Regions probed for the deployment stack after the session region.
var commonRegions = []string{"us-east-1", "us-west-2", "eu-west-1", "ap-southeast-1"}

// StackProbeAPI is the CloudFormation subset used by the region probe.
type StackProbeAPI interface {
	DescribeStacks(ctx context.Context, input *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// Config resolves run configuration with per-key memoization. The zero
// value is not usable; call New.
type Config struct {
	logger *slog.Logger

	// cfnFactory builds a region-scoped CloudFormation client for the
	// stack probe. Injectable for tests.
	cfnFactory func(region string) StackProbeAPI

	// sessionRegion is the AWS SDK default-chain region, probed first.
	sessionRegion string

	mu             sync.Mutex
	regionOverride string
	cache          map[string]string
	tags           []map[string]string
	tagsSet        bool
}

// New creates a Config. The session region is taken from the default AWS
// config chain; failures there just mean the probe starts with the
// shortlist.
func New(logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Config{
		logger: logger,
		cache:  make(map[string]string),
	}
	c.cfnFactory = func(region string) StackProbeAPI {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
		if err != nil {
			return nil
		}
		return cloudformation.NewFromConfig(awsCfg)
	}
	if awsCfg, err := awsconfig.LoadDefaultConfig(context.Background()); err == nil {
		c.sessionRegion = awsCfg.Region
	}
	return c
}

// NewForTest creates a Config with an injected stack probe and session
// region.
func NewForTest(logger *slog.Logger, sessionRegion string, factory func(region string) StackProbeAPI) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	return &Config{
		logger:        logger,
		cache:         make(map[string]string),
		cfnFactory:    factory,
		sessionRegion: sessionRegion,
	}
}

// SetRegionOverride records an explicit region, typically from the CLI.
// The override wins over every other source.
func (c *Config) SetRegionOverride(region string) error {
	if strings.TrimSpace(region) == "" {
		return fmt.Errorf("invalid region: %q", region)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regionOverride = region
	c.cache["aws_region"] = region
	c.logger.Info("region override set", "region", region)
	return nil
}

// Region resolves the AWS region with precedence: explicit override >
// CHAOS_AGENT_REGION > AWS_DEFAULT_REGION/AWS_REGION > deployment stack
// location > fallback. The first hit is cached.
func (c *Config) Region(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.cache["aws_region"]; ok {
		return r
	}

	if r := os.Getenv("CHAOS_AGENT_REGION"); r != "" {
		c.logger.Info("using region from environment override", "region", r)
		c.cache["aws_region"] = r
		return r
	}

	if r := firstEnv("AWS_DEFAULT_REGION", "AWS_REGION"); r != "" {
		c.logger.Info("using region from AWS environment variables", "region", r)
		c.cache["aws_region"] = r
		return r
	}

	if r := c.stackRegion(ctx); r != "" {
		c.logger.Info("using region from deployment stack location", "region", r)
		c.cache["aws_region"] = r
		return r
	}

	c.logger.Warn("using default fallback region", "region", fallbackRegion)
	c.cache["aws_region"] = fallbackRegion
	return fallbackRegion
}

// stackRegion probes for the deployment stack: session region first, then
// the shortlist. Returns "" when the stack is nowhere to be found and no
// session region exists.
func (c *Config) stackRegion(ctx context.Context) string {
	probe := func(region string) bool {
		client := c.cfnFactory(region)
		if client == nil {
			return false
		}
		resp, err := client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
			StackName: aws.String(stackName),
		})
		if err != nil {
			if !strings.Contains(err.Error(), "does not exist") {
				c.logger.Warn("error probing for deployment stack", "region", region, "error", err)
			}
			return false
		}
		return len(resp.Stacks) > 0
	}

	if c.sessionRegion != "" && probe(c.sessionRegion) {
		return c.sessionRegion
	}
	for _, region := range commonRegions {
		if region == c.sessionRegion {
			continue
		}
		if probe(region) {
			return region
		}
	}

	// Stack not found anywhere: fall back to the session region if any.
	if c.sessionRegion != "" {
		c.logger.Warn("deployment stack not found in any region", "fallback", c.sessionRegion)
		return c.sessionRegion
	}
	return ""
}

// DefaultModel returns the model id used by coordinating agents.
func (c *Config) DefaultModel() string {
	return c.model("default_model", "CHAOS_AGENT_MODEL", defaultModel)
}

// SmallModel returns the fast model id used for analysis tasks.
func (c *Config) SmallModel() string {
	return c.model("small_model", "CHAOS_AGENT_SMALL_MODEL", defaultSmallModel)
}

// LargeModel returns the high-quality model id used for complex reasoning.
func (c *Config) LargeModel() string {
	return c.model("large_model", "CHAOS_AGENT_LARGE_MODEL", defaultLargeModel)
}

func (c *Config) model(cacheKey, envVar, fallback string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.cache[cacheKey]; ok {
		return m
	}
	m := os.Getenv(envVar)
	if m == "" {
		m = fallback
	}
	c.cache[cacheKey] = m
	return m
}

// Reset clears all cached resolution state. Test hook only.
func (c *Config) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regionOverride = ""
	c.cache = make(map[string]string)
	c.tags = nil
	c.tagsSet = false
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
