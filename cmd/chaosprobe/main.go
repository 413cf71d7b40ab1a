package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chaosprobe/chaosprobe/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "chaosprobe",
		Short: "Agent-driven chaos engineering for AWS workloads",
		Long: `Chaosprobe analyzes an AWS workload, generates and prioritizes failure
hypotheses, designs AWS Fault Injection Service experiments for them, runs
the top-priority ones, and records what the system learned. All state lives
in an Aurora database reached through the RDS Data API; the reasoning steps
are driven by Bedrock-hosted models with database and AWS tools.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewRunCmd(),
		commands.NewStatusCmd(),
		commands.NewStatsCmd(),
		commands.NewInitSchemaCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
