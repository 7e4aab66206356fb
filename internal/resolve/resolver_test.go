package resolve

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anexotools/anexocon/internal/registry"
)

func testContract() *registry.Contract {
	return &registry.Contract{
		Number:      "4600001234-2024",
		InitialDate: "15/01/2024",
		Amendments: []registry.Entry{
			{Number: 1, Date: "01/03/2024"},
			{Number: 2, Date: "10/06/2024"},
		},
		Minutes: []registry.Entry{
			{Number: 1, Date: "20/02/2024"},
			{Number: 2, Date: "05/05/2024"},
		},
	}
}

func TestResolveBasePrefersHighestAmendment(t *testing.T) {
	log := NewAlertLog()
	sel, err := ResolveBase([]string{
		"ANEXO 1.xlsx",
		"ANEXO1_OTROSI1.xlsx",
		"ANEXO1_OTROSI2.xlsb",
	}, testContract(), log)
	require.NoError(t, err)
	assert.Equal(t, KindAmendment, sel.Kind)
	assert.Equal(t, 2, sel.Number)
	assert.Equal(t, "ANEXO1_OTROSI2.xlsb", sel.Filename)
	assert.Equal(t, "10/06/2024", sel.Date)
	assert.Zero(t, log.Len())
}

func TestResolveBaseFallsBackToInitial(t *testing.T) {
	log := NewAlertLog()
	sel, err := ResolveBase([]string{"ANEXO 1.xlsx", "notas.txt"}, testContract(), log)
	require.NoError(t, err)
	assert.Equal(t, KindInitial, sel.Kind)
	assert.Equal(t, 0, sel.Number)
	assert.Equal(t, "15/01/2024", sel.Date)
}

// An amendment marker file without a matching ANEXO 1 candidate falls
// back to the initial document.
func TestResolveBaseUnmatchedAmendmentNumber(t *testing.T) {
	log := NewAlertLog()
	sel, err := ResolveBase([]string{
		"ANEXO 1.xlsx",
		"OTROSI 3.xlsx", // amendment file without an ANEXO 1 counterpart
	}, testContract(), log)
	require.NoError(t, err)
	assert.Equal(t, KindInitial, sel.Kind)
	assert.Equal(t, "ANEXO 1.xlsx", sel.Filename)
}

func TestResolveBaseNoCandidates(t *testing.T) {
	log := NewAlertLog()
	sel, err := ResolveBase([]string{"notas.txt", "resumen.pdf"}, testContract(), log)
	assert.Nil(t, sel)
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Contract has no initial ANEXO 1 nor amendment", rerr.Message)

	alerts := log.All()
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityError, alerts[0].Severity)
	assert.Equal(t, "4600001234-2024", alerts[0].Contract)
}

// Never both: a resolved base is either the initial document or an
// amendment, exactly one.
func TestResolveBaseSingleKind(t *testing.T) {
	log := NewAlertLog()
	sel, err := ResolveBase([]string{"ANEXO 1.xlsx", "ANEXO1_OTROSI1.xlsx"}, testContract(), log)
	require.NoError(t, err)
	assert.Equal(t, KindAmendment, sel.Kind)
	assert.NotEqual(t, "ANEXO 1.xlsx", sel.Filename)
}

func TestResolveMinutes(t *testing.T) {
	log := NewAlertLog()
	out := ResolveMinutes([]string{
		"ANEXO 1 ACTA 1.xlsx",
		"ANEXO 1 ACTA 2.xlsb",
		"ANEXO 1.xlsx", // no acta number, skipped
	}, testContract(), true, log)
	require.Len(t, out, 2)
	for _, sel := range out {
		assert.Equal(t, KindMinutes, sel.Kind)
	}
	// candidate order follows extension priority, xlsb first
	assert.Equal(t, 2, out[0].Number)
	assert.Equal(t, "05/05/2024", out[0].Date)
	assert.Equal(t, 1, out[1].Number)
	assert.Equal(t, "20/02/2024", out[1].Date)
	assert.Zero(t, log.Len())
}

func TestResolveMinutesEmptyFolder(t *testing.T) {
	log := NewAlertLog()
	out := ResolveMinutes([]string{"notas.txt"}, testContract(), true, log)
	assert.Empty(t, out)

	alerts := log.All()
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityWarning, alerts[0].Severity)
	assert.Equal(t, "Negotiation-minutes folder has no associated ANEXO 1", alerts[0].Message)
}

func TestResolveMinutesWithoutBase(t *testing.T) {
	log := NewAlertLog()
	out := ResolveMinutes([]string{"ANEXO 1 ACTA 1.xlsx"}, testContract(), false, log)
	require.Len(t, out, 1)

	alerts := log.All()
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityInfo, alerts[0].Severity)
}

func TestDetectGaps(t *testing.T) {
	c := testContract() // registry expects minutes 1 and 2
	log := NewAlertLog()
	DetectGaps(c, []int{2}, log)

	alerts := log.All()
	require.Len(t, alerts, 1)
	assert.Equal(t, "No ANEXO 1 for minutes record 1 – Contract 4600001234-2024", alerts[0].Message)
	assert.Equal(t, SeverityWarning, alerts[0].Severity)
}

// The contiguous-range pass catches numbering holes the registry does
// not anticipate, and the dedupe keeps dual-flagged numbers to one
// alert.
func TestDetectGapsContiguousRange(t *testing.T) {
	c := testContract()
	log := NewAlertLog()
	DetectGaps(c, []int{4}, log)

	alerts := log.All()
	require.Len(t, alerts, 3)
	for i, want := range []int{1, 2, 3} {
		assert.Equal(t, fmt.Sprintf("No ANEXO 1 for minutes record %d – Contract %s", want, c.Number), alerts[i].Message)
	}
}

func TestDetectGapsNothingMissing(t *testing.T) {
	log := NewAlertLog()
	DetectGaps(testContract(), []int{1, 2}, log)
	assert.Zero(t, log.Len())
}
