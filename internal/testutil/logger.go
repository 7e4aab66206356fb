// Package testutil holds shared test helpers.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a debug-level logger routed through t.Log, so
// pipeline log lines show up interleaved with test output on failure
// or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(&logWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type logWriter struct {
	t testing.TB
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	// The handler terminates every record with a newline; t.Log adds
	// its own.
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
