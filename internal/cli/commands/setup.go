// Package commands implements the anexocon subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anexotools/anexocon/internal/config"
	"github.com/anexotools/anexocon/internal/engine"
	"github.com/anexotools/anexocon/internal/registry"
	"github.com/anexotools/anexocon/internal/state"
	"github.com/anexotools/anexocon/internal/transfer"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Store  state.Store
}

// NewCommandContext opens the process-log store and bundles it with
// the resolved configuration. The returned cleanup must be called,
// typically via defer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store, err := state.Open(cfg.StatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}

	cleanup := func() {
		_ = store.Close()
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Store:  store,
	}, cleanup, nil
}

// getConfig returns the current configuration, falling back to
// defaults when no Load has run (direct command construction in
// tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		RemoteRoot: "/",
		WorkDir:    config.DefaultWorkDir,
		OutputDir:  config.DefaultOutputDir,
		StatePath:  config.DefaultStateFile,
		Workers:    config.DefaultWorkers,
	}
}

// loadMaestra loads the contract registry configured for this run.
func loadMaestra(cfg *config.Config) (*registry.Maestra, error) {
	if cfg.RegistryPath == "" {
		return nil, fmt.Errorf("no registry configured; set registry_path or pass --registry")
	}
	return registry.NewManager(cfg.RegistryPath).Load()
}

// newEngine wires an engine over an SFTP dialer.
func newEngine(cc *CommandContext) *engine.Engine {
	dialer := func(ctx context.Context) (transfer.Client, error) {
		return transfer.DialSFTP(ctx, cc.Cfg.TransferConfig())
	}
	return engine.New(cc.Cfg, dialer, cc.Store, cc.Logger)
}
