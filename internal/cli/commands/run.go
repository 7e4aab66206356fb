package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/anexotools/anexocon/internal/consolidate"
	"github.com/anexotools/anexocon/internal/engine"
	"github.com/anexotools/anexocon/internal/registry"
	"github.com/anexotools/anexocon/internal/resolve"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var (
		contractFlags []string
		yearFlag      string
		allFlag       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Consolidate tariff schedules for contracts",
		Long: `Consolidate ANEXO 1 tariff schedules for the selected contracts.

For each contract the remote store is searched for the contract folder,
the base document (initial ANEXO 1 or its latest amendment) and the
negotiation minutes are resolved and downloaded, and the extracted
tariffs are written to one consolidated workbook.`,
		Example: `  # Consolidate two contracts
  anexocon run --contract 4600012345-2024 --contract 4600054321-2024

  # Consolidate every registry contract of one year, four sessions
  anexocon run --year 2024 --workers 4

  # Consolidate the whole registry
  anexocon run --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, contractFlags, yearFlag, allFlag)
		},
	}

	cmd.Flags().StringArrayVar(&contractFlags, "contract", nil, "Contract number to consolidate (repeatable)")
	cmd.Flags().StringVar(&yearFlag, "year", "", "Consolidate every registry contract of this year")
	cmd.Flags().BoolVar(&allFlag, "all", false, "Consolidate every contract in the registry")

	return cmd
}

func runRun(cmd *cobra.Command, contractFlags []string, year string, all bool) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	maestra, err := loadMaestra(cc.Cfg)
	if err != nil {
		return err
	}

	contracts, err := selectContracts(maestra, contractFlags, year, all)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Consolidating %d contracts with %d workers\n", len(contracts), cc.Cfg.Workers)

	eng := newEngine(cc)
	start := time.Now()
	results, err := eng.RunBatch(cmd.Context(), contracts)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	renderResults(cmd, results)
	fmt.Fprintf(out, "Completed in %s\n", time.Since(start).Round(time.Millisecond))

	for _, r := range results {
		if r != nil && !r.Succeeded() {
			return fmt.Errorf("%d of %d contracts failed to consolidate", countFailed(results), len(results))
		}
	}
	return nil
}

// selectContracts resolves the run's contract set from the flags.
func selectContracts(maestra *registry.Maestra, numbers []string, year string, all bool) ([]*registry.Contract, error) {
	switch {
	case len(numbers) > 0:
		var out []*registry.Contract
		for _, n := range numbers {
			c, ok := maestra.Get(n)
			if !ok {
				return nil, fmt.Errorf("contract %s not found in registry", n)
			}
			out = append(out, c)
		}
		return out, nil
	case year != "":
		out := maestra.ByYear(year)
		if len(out) == 0 {
			return nil, fmt.Errorf("no registry contracts for year %s", year)
		}
		return out, nil
	case all:
		return maestra.All(), nil
	default:
		return nil, fmt.Errorf("select contracts with --contract, --year or --all")
	}
}

func countFailed(results []*engine.ContractResult) int {
	n := 0
	for _, r := range results {
		if r != nil && !r.Succeeded() {
			n++
		}
	}
	return n
}

// renderResults prints the per-contract outcome table followed by the
// combined alert trail.
func renderResults(cmd *cobra.Command, results []*engine.ContractResult) {
	out := cmd.OutOrStdout()

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Contract", "Status", "Documents", "Records", "Alerts", "Output"})
	var alerts []resolve.Alert
	for _, r := range results {
		if r == nil {
			continue
		}
		status := "ok"
		if !r.Succeeded() {
			status = "failed"
		}
		t.AppendRow(table.Row{r.Contract, status, r.Documents, len(r.Records), len(r.Alerts), r.OutputPath})
		alerts = append(alerts, r.Alerts...)
	}
	t.Render()

	if len(alerts) > 0 {
		fmt.Fprintln(out)
		consolidate.RenderAlerts(out, alerts)
	}
}
