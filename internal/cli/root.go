// Package cli provides the command-line interface for anexocon.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/anexotools/anexocon/internal/cli/commands"
	"github.com/anexotools/anexocon/internal/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "anexocon",
		Short: "anexocon - ANEXO 1 tariff consolidation",
		Long: `anexocon consolidates ANEXO 1 tariff schedules for health-provider
contracts. It locates each contract's documents on the remote store,
resolves the current base document and negotiation minutes, extracts
the tariff tables and writes one consolidated workbook per contract,
with an alert trail of everything that did not line up.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			cmd.SetContext(context.WithValue(cmd.Context(), config.LoggerKey(), logger))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
ANEXO 1 tariff consolidation
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./anexocon.yaml)")
	rootCmd.PersistentFlags().String("registry", "", "Path to the contract registry workbook")
	rootCmd.PersistentFlags().String("output", "", "Directory for consolidated workbooks")
	rootCmd.PersistentFlags().String("state", "", "Path to the process-log database")
	rootCmd.PersistentFlags().Int("workers", 0, "Remote sessions to process contracts in parallel")
	rootCmd.PersistentFlags().Bool("keep-downloads", false, "Keep downloaded documents after processing")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewProcessCommand())
	rootCmd.AddCommand(commands.NewContractsCommand())
	rootCmd.AddCommand(commands.NewAlertsCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
