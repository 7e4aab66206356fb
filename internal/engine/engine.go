// Package engine orchestrates contract processing: remote navigation,
// document resolution, download, extraction and consolidation.
package engine

import (
	"log/slog"
	"time"

	"github.com/anexotools/anexocon/internal/config"
	"github.com/anexotools/anexocon/internal/consolidate"
	"github.com/anexotools/anexocon/internal/resolve"
	"github.com/anexotools/anexocon/internal/state"
	"github.com/anexotools/anexocon/internal/transfer"
)

// Engine drives consolidation runs.
type Engine struct {
	cfg    *config.Config
	dialer transfer.Dialer
	store  state.Store
	logger *slog.Logger

	now func() time.Time
}

// New assembles an engine. The dialer opens remote sessions on demand;
// store may be nil when no process log is wanted.
func New(cfg *config.Config, dialer transfer.Dialer, store state.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		cfg:    cfg,
		dialer: dialer,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ContractResult is the outcome of processing one contract.
type ContractResult struct {
	Contract   string
	Records    []consolidate.Record
	Alerts     []resolve.Alert
	Documents  int
	OutputPath string
	Duration   time.Duration
	Err        error
}

// Succeeded reports whether the contract produced consolidated
// records.
func (r *ContractResult) Succeeded() bool {
	return r.Err == nil && len(r.Records) > 0
}
