// Package resolve decides which tariff documents to process for a
// contract and keeps the alert trail produced along the way.
package resolve

import "time"

// Severity classifies an alert.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Alert is one entry in the resolution trail. Entries are append-only
// and never mutated once recorded.
type Alert struct {
	Severity Severity
	Message  string
	Contract string
	Time     time.Time
}

// AlertLog accumulates alerts for a processing run. Add deduplicates
// by (contract, message) so dual-pass checks cannot report the same
// condition twice.
type AlertLog struct {
	alerts []Alert
	seen   map[[2]string]struct{}
	now    func() time.Time
}

// NewAlertLog returns an empty log.
func NewAlertLog() *AlertLog {
	return &AlertLog{
		seen: make(map[[2]string]struct{}),
		now:  time.Now,
	}
}

// Add records an alert unless the same (contract, message) pair was
// already recorded. It reports whether the alert was appended.
func (l *AlertLog) Add(severity Severity, contract, message string) bool {
	key := [2]string{contract, message}
	if _, dup := l.seen[key]; dup {
		return false
	}
	l.seen[key] = struct{}{}
	l.alerts = append(l.alerts, Alert{
		Severity: severity,
		Message:  message,
		Contract: contract,
		Time:     l.now(),
	})
	return true
}

// All returns the recorded alerts in insertion order.
func (l *AlertLog) All() []Alert {
	out := make([]Alert, len(l.alerts))
	copy(out, l.alerts)
	return out
}

// ForContract returns the alerts recorded for one contract.
func (l *AlertLog) ForContract(contract string) []Alert {
	var out []Alert
	for _, a := range l.alerts {
		if a.Contract == contract {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of recorded alerts.
func (l *AlertLog) Len() int { return len(l.alerts) }
