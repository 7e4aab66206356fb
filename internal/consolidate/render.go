package consolidate

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/anexotools/anexocon/internal/resolve"
	"github.com/anexotools/anexocon/internal/state"
)

// RenderStats writes the aggregate totals and the recent process log
// as console tables.
func RenderStats(w io.Writer, totals state.Totals, recent []state.Process) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Processes", "Succeeded", "Failed", "Records", "Success Rate", "Alerts"})
	t.AppendRow(table.Row{
		totals.Processes, totals.Succeeded, totals.Failed, totals.Records,
		fmt.Sprintf("%.1f%%", totals.SuccessRate), totals.Alerts,
	})
	t.Render()

	if len(recent) == 0 {
		return
	}
	r := table.NewWriter()
	r.SetOutputMirror(w)
	r.SetStyle(table.StyleLight)
	r.AppendHeader(table.Row{"Started", "Kind", "Subject", "Records", "Status", "Duration"})
	for _, p := range recent {
		status := "ok"
		if !p.Success {
			status = "failed"
		}
		r.AppendRow(table.Row{
			p.Started.Format("2006-01-02 15:04"), p.Kind, p.Subject, p.Records, status, p.Duration,
		})
	}
	r.Render()
}

// RenderAlerts writes an alert trail as a console table.
func RenderAlerts(w io.Writer, alerts []resolve.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No alerts.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Severity", "Contract", "Message", "Time"})
	for _, a := range alerts {
		t.AppendRow(table.Row{a.Severity, a.Contract, a.Message, a.Time.Format(alertTimeLayout)})
	}
	t.Render()
}
