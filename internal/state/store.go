// Package state persists the processing log: one row per consolidation
// run with its outcome, plus the alert trail each run produced.
package state

import (
	"context"
	"time"

	"github.com/anexotools/anexocon/internal/resolve"
)

// Process is one recorded consolidation run.
type Process struct {
	ID       string
	Kind     string // "contract" or "file"
	User     string
	Subject  string // contract number or local filename
	Records  int
	Success  bool
	Error    string
	Started  time.Time
	Duration time.Duration
}

// Totals aggregates the process log.
type Totals struct {
	Processes   int
	Succeeded   int
	Failed      int
	Records     int
	SuccessRate float64 // percent, one decimal
	Alerts      int
}

// Store is the persistence surface the engine records into.
type Store interface {
	RecordProcess(ctx context.Context, p Process) (string, error)
	RecordAlerts(ctx context.Context, processID string, alerts []resolve.Alert) error
	Totals(ctx context.Context) (Totals, error)
	Recent(ctx context.Context, n int) ([]Process, error)
	AlertsForProcess(ctx context.Context, processID string) ([]resolve.Alert, error)
	LastProcessID(ctx context.Context) (string, error)
	Close() error
}
