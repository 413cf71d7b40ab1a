package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaosprobe/chaosprobe/internal/config"
	"github.com/chaosprobe/chaosprobe/internal/workflow"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var (
		workloadRepo string
		region       string
		experiments  int
		tags         string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the chaos engineering workflow against an AWS workload",
		Long: `Runs the six-step chaos engineering workflow: analyze the workload,
generate and prioritize hypotheses, design and set up AWS FIS experiments,
execute the top-priority ones, and record learning insights.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags win over chaosprobe.yaml; the file fills in whatever
			// the caller left at its default.
			fileCfg, err := config.LoadFile(".")
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workload") && fileCfg.Workload != "" {
				workloadRepo = fileCfg.Workload
			}
			if !cmd.Flags().Changed("region") && fileCfg.Region != "" {
				region = fileCfg.Region
			}
			if !cmd.Flags().Changed("experiments") && fileCfg.Experiments > 0 {
				experiments = fileCfg.Experiments
			}
			if !cmd.Flags().Changed("tags") && fileCfg.Tags != "" {
				tags = fileCfg.Tags
			}

			if tags != "" {
				if _, err := config.ParseTags(tags); err != nil {
					return err
				}
			}
			if verbose {
				os.Setenv("CHAOS_AGENT_LOG_LEVEL", "debug")
			}

			return runWorkflow(cmd.Context(), workloadRepo, region, tags, experiments)
		},
	}

	cmd.Flags().StringVarP(&workloadRepo, "workload", "w", workflow.DefaultWorkload, "Workload repository URL to analyze")
	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region the workload is deployed in")
	cmd.Flags().IntVarP(&experiments, "experiments", "e", 3, "Number of top-priority experiments to execute")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "Workload tag filter, e.g. 'Environment=prod,Application=web'")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runWorkflow(ctx context.Context, workloadRepo, region, tags string, experiments int) error {
	svc, err := buildServices(ctx, region)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	_, _ = bold.Printf("Starting chaos engineering workflow\n")
	fmt.Printf("  Workload:    %s\n", workloadRepo)
	fmt.Printf("  Region:      %s\n", svc.cfg.Region(ctx))
	if tags != "" {
		fmt.Printf("  Tags:        %s\n", tags)
	}
	fmt.Printf("  Experiments: %d\n\n", experiments)

	orch := workflow.New(svc.deps)
	results, err := orch.Run(ctx, workflow.Params{
		Workload:       workloadRepo,
		Region:         region,
		Tags:           tags,
		TopExperiments: experiments,
	})

	for _, r := range results {
		color.Green("✓ %s (%s)", r.Name, r.Duration.Round(time.Second))
	}
	if err != nil {
		color.Red("Workflow failed: %v", err)
		return err
	}

	_, _ = bold.Println("\nChaos engineering workflow complete")
	return nil
}
