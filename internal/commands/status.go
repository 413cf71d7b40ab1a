package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaosprobe/chaosprobe/internal/store"
	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var (
		region string
		limit  int64
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show hypotheses and experiments in the chaos database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			svc, err := buildServices(ctx, region)
			if err != nil {
				return err
			}
			return showStatus(ctx, svc.store, limit)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region the workload is deployed in")
	cmd.Flags().Int64VarP(&limit, "limit", "l", 10, "Maximum rows per section")
	return cmd
}

func showStatus(ctx context.Context, st *store.Store, limit int64) error {
	bold := color.New(color.Bold)

	hypotheses := st.GetHypotheses(ctx, store.HypothesisFilter{Limit: limit})
	if !hypotheses.Success {
		return fmt.Errorf("reading hypotheses: %s", hypotheses.Error)
	}

	_, _ = bold.Println("Hypotheses:")
	if len(hypotheses.Hypotheses) == 0 {
		fmt.Println("  none")
	}
	for _, h := range hypotheses.Hypotheses {
		fmt.Printf("  [%d] %-60s priority=%d %s\n",
			h.ID, clip(h.Title, 60), h.Priority, hypothesisStatusColor(h.Status))
	}
	fmt.Println()

	experiments := st.GetExperimentsWithContext(ctx, store.ContextFilter{Limit: limit})
	if !experiments.Success {
		return fmt.Errorf("reading experiments: %s", experiments.Error)
	}

	_, _ = bold.Println("Experiments:")
	if len(experiments.Experiments) == 0 {
		fmt.Println("  none")
	}
	for _, e := range experiments.Experiments {
		line := fmt.Sprintf("  [%d] %-60s %s", e.ID, clip(e.Title, 60), experimentStatusColor(e.Status))
		if e.HypothesisTitle != nil {
			line += fmt.Sprintf("  (hypothesis: %s)", clip(*e.HypothesisTitle, 40))
		}
		fmt.Println(line)
	}
	fmt.Println()
	return nil
}

func hypothesisStatusColor(status string) string {
	switch status {
	case types.HypothesisValidated:
		return color.GreenString(status)
	case types.HypothesisRefuted:
		return color.RedString(status)
	case types.HypothesisPrioritized:
		return color.CyanString(status)
	default:
		return color.YellowString(status)
	}
}

func experimentStatusColor(status string) string {
	switch status {
	case types.ExperimentCompleted:
		return color.GreenString(status)
	case types.ExperimentFailed, types.ExperimentStopped:
		return color.RedString(status)
	case types.ExperimentRunning:
		return color.CyanString(status)
	default:
		return color.YellowString(status)
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
