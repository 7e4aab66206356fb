package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anexotools/anexocon/internal/consolidate"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	var recentFlag int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show process-log statistics",
		Long:  `Show aggregate consolidation statistics and the most recent runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, recentFlag)
		},
	}

	cmd.Flags().IntVar(&recentFlag, "recent", 10, "Number of recent runs to show")

	return cmd
}

func runStats(cmd *cobra.Command, recent int) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	totals, err := cc.Store.Totals(ctx)
	if err != nil {
		return fmt.Errorf("failed to load totals: %w", err)
	}
	processes, err := cc.Store.Recent(ctx, recent)
	if err != nil {
		return fmt.Errorf("failed to load recent runs: %w", err)
	}

	consolidate.RenderStats(cmd.OutOrStdout(), totals, processes)
	return nil
}
