package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/anexotools/anexocon/internal/registry"
)

// NewContractsCommand creates the contracts command.
func NewContractsCommand() *cobra.Command {
	var (
		searchFlag string
		yearFlag   string
	)

	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "List registry contracts",
		Long: `List the health-provider contracts in the registry workbook, with
their scheduled amendments and negotiation minutes.`,
		Example: `  # Every contract
  anexocon contracts

  # Contracts of one year
  anexocon contracts --year 2024

  # Substring search on the contract number
  anexocon contracts --search 46000123`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runContracts(cmd, searchFlag, yearFlag)
		},
	}

	cmd.Flags().StringVar(&searchFlag, "search", "", "Filter contracts by number substring")
	cmd.Flags().StringVar(&yearFlag, "year", "", "Filter contracts by year")

	return cmd
}

func runContracts(cmd *cobra.Command, search, year string) error {
	cfg := getConfig()
	maestra, err := loadMaestra(cfg)
	if err != nil {
		return err
	}

	var contracts []*registry.Contract
	switch {
	case search != "":
		contracts = maestra.Search(search)
	case year != "":
		contracts = maestra.ByYear(year)
	default:
		contracts = maestra.All()
	}

	out := cmd.OutOrStdout()
	info := maestra.Info()
	fmt.Fprintf(out, "Registry %s (sheet %q, %d contracts)\n", info.Path, info.Sheet, info.Contracts)

	if len(contracts) == 0 {
		fmt.Fprintln(out, "No contracts matched.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Contract", "Initial Date", "Amendments", "Minutes"})
	for _, c := range contracts {
		t.AppendRow(table.Row{c.Number, c.InitialDate, len(c.Amendments), len(c.Minutes)})
	}
	t.Render()

	return nil
}
