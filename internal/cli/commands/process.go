package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anexotools/anexocon/internal/consolidate"
)

// NewProcessCommand creates the process command.
func NewProcessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>",
		Short: "Consolidate a single local ANEXO 1 file",
		Long: `Validate and extract a local ANEXO 1 spreadsheet without touching the
remote store, and write its consolidated workbook. Useful for checking
a file a provider sent by hand before it lands on the store.`,
		Example: `  anexocon process "ANEXO 1 OTROSI 2.xlsx"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args[0])
		},
	}
}

func runProcess(cmd *cobra.Command, path string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := newEngine(cc)
	res, err := eng.ProcessFile(cmd.Context(), path)

	out := cmd.OutOrStdout()
	if len(res.Alerts) > 0 {
		consolidate.RenderAlerts(out, res.Alerts)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Consolidated %d records into %s\n", len(res.Records), res.OutputPath)
	return nil
}
