package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anexotools/anexocon/internal/consolidate"
)

// NewAlertsCommand creates the alerts command.
func NewAlertsCommand() *cobra.Command {
	var (
		formatFlag  string
		processFlag string
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show the alert trail of a recorded run",
		Long: `Show the alert trail a consolidation run left behind. Without
--process the most recent run is reported.`,
		Example: `  # Alerts of the last run, human readable
  anexocon alerts

  # Alerts of one run, machine readable
  anexocon alerts --process 3f6c... --format yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAlerts(cmd, formatFlag, processFlag)
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", consolidate.ReportText, "Report format (text|yaml)")
	cmd.Flags().StringVar(&processFlag, "process", "", "Process ID to report (default: most recent)")

	return cmd
}

func runAlerts(cmd *cobra.Command, format, processID string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if processID == "" {
		processID, err = cc.Store.LastProcessID(ctx)
		if err != nil {
			return fmt.Errorf("failed to find last run: %w", err)
		}
		if processID == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
			return nil
		}
	}

	alerts, err := cc.Store.AlertsForProcess(ctx, processID)
	if err != nil {
		return fmt.Errorf("failed to load alerts: %w", err)
	}

	return consolidate.WriteAlertReport(cmd.OutOrStdout(), alerts, format)
}
