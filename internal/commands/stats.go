package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaosprobe/chaosprobe/internal/stats"
	"github.com/chaosprobe/chaosprobe/internal/store"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	var (
		region string
		topN   int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report hypothesis evaluation score statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			svc, err := buildServices(ctx, region)
			if err != nil {
				return err
			}
			return showStats(ctx, svc.store, topN)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region the workload is deployed in")
	cmd.Flags().IntVarP(&topN, "top", "n", 5, "Number of best and worst hypotheses to show")
	return cmd
}

func showStats(ctx context.Context, st *store.Store, topN int) error {
	result := st.GetHypothesisEvaluations(ctx, store.EvaluationFilter{})
	if !result.Success {
		return fmt.Errorf("reading evaluations: %s", result.Error)
	}
	if len(result.Evaluations) == 0 {
		fmt.Println("No hypothesis evaluations recorded yet.")
		return nil
	}

	summary := stats.Summarize(result.Evaluations, topN)
	bold := color.New(color.Bold)

	_, _ = bold.Printf("Hypothesis evaluations: %d\n\n", summary.Count)

	_, _ = bold.Println("Average scores:")
	fmt.Printf("  Testability:    %s\n", scoreBar(summary.Averages.Testability))
	fmt.Printf("  Specificity:    %s\n", scoreBar(summary.Averages.Specificity))
	fmt.Printf("  Realism:        %s\n", scoreBar(summary.Averages.Realism))
	fmt.Printf("  Safety:         %s\n", scoreBar(summary.Averages.Safety))
	fmt.Printf("  Learning value: %s\n", scoreBar(summary.Averages.LearningValue))
	fmt.Printf("  Overall:        %s\n\n", scoreBar(summary.Averages.Overall))

	_, _ = bold.Println("Overall score distribution:")
	for _, b := range summary.Distribution {
		fmt.Printf("  %-12s %s %d\n", b.Label, strings.Repeat("█", b.Count), b.Count)
	}
	fmt.Println()

	_, _ = bold.Println("Best hypotheses:")
	for _, e := range summary.Best {
		color.Green("  %.2f  %s", e.OverallScore, e.HypothesisTitle)
	}
	fmt.Println()

	_, _ = bold.Println("Needs refinement:")
	for _, e := range summary.Worst {
		color.Yellow("  %.2f  %s", e.OverallScore, e.HypothesisTitle)
	}
	return nil
}

// scoreBar renders a 1..5 score as a filled bar with the numeric value.
func scoreBar(score float64) string {
	filled := int(score * 4)
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return fmt.Sprintf("%-20s %.2f", strings.Repeat("▰", filled), score)
}
