package consolidate

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/anexotools/anexocon/internal/resolve"
)

// Alert report formats.
const (
	ReportText = "text"
	ReportYAML = "yaml"
)

const alertTimeLayout = "2006-01-02 15:04:05"

type yamlAlert struct {
	Severity string `yaml:"severity"`
	Contract string `yaml:"contract"`
	Message  string `yaml:"message"`
	Time     string `yaml:"time"`
}

// WriteAlertReport renders an alert trail. The text format groups
// alerts by severity; yaml emits a flat list for machine consumption.
func WriteAlertReport(w io.Writer, alerts []resolve.Alert, format string) error {
	switch format {
	case ReportYAML:
		out := make([]yamlAlert, 0, len(alerts))
		for _, a := range alerts {
			out = append(out, yamlAlert{
				Severity: a.Severity.String(),
				Contract: a.Contract,
				Message:  a.Message,
				Time:     a.Time.Format(alertTimeLayout),
			})
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(out)
	case ReportText, "":
		return writeTextReport(w, alerts)
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

func writeTextReport(w io.Writer, alerts []resolve.Alert) error {
	if len(alerts) == 0 {
		_, err := fmt.Fprintln(w, "No alerts.")
		return err
	}
	for _, sev := range []resolve.Severity{resolve.SeverityError, resolve.SeverityWarning, resolve.SeverityInfo} {
		group := filterBySeverity(alerts, sev)
		if len(group) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s (%d)\n", sev, len(group)); err != nil {
			return err
		}
		for _, a := range group {
			if _, err := fmt.Fprintf(w, "  [%s] Contract %s: %s\n",
				a.Time.Format(alertTimeLayout), a.Contract, a.Message); err != nil {
				return err
			}
		}
	}
	return nil
}

func filterBySeverity(alerts []resolve.Alert, sev resolve.Severity) []resolve.Alert {
	var out []resolve.Alert
	for _, a := range alerts {
		if a.Severity == sev {
			out = append(out, a)
		}
	}
	return out
}
