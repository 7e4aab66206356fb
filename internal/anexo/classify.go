// Package anexo implements the ANEXO 1 document pipeline: filename
// classification, tariff-layout validation and site/service extraction.
package anexo

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/anexotools/anexocon/internal/text"
)

// extensionPriority ranks supported spreadsheet extensions; lower is
// preferred when several candidates exist for the same logical document
// (binary workbook over text formats).
var extensionPriority = map[string]int{
	".xlsb": 1,
	".xlsx": 2,
	".xlsm": 3,
	".xls":  4,
	".csv":  5,
	".tsv":  6,
	".ods":  7,
}

// Filename patterns run against folded (accent-stripped, upper-cased,
// underscore-normalized) names, so a single spelling per variant
// suffices.
var (
	anexo1Pattern    = regexp.MustCompile(`ANEXO\s*(?:1|UNO)|ANEXO[-]?1`)
	amendmentPattern = regexp.MustCompile(`OTRO\s*SI|OT\s*\d+`)
	amendmentNumber  = regexp.MustCompile(`(?:OTRO\s*SI\s*[-]?|OT\s*)(\d+)`)
	minutesNumber    = regexp.MustCompile(`ACTA\s*[-]?(\d+)`)
)

// foldName folds a filename for pattern matching; underscores count as
// separators ("ANEXO1_OTROSI2" and "ANEXO 1 OTROSI 2" classify alike).
func foldName(name string) string {
	return text.Fold(strings.ReplaceAll(name, "_", " "))
}

// IsAnexo1 reports whether a filename names an ANEXO 1 document.
func IsAnexo1(name string) bool {
	return anexo1Pattern.MatchString(foldName(name))
}

// IsAmendment reports whether a filename names an amendment (otrosí).
func IsAmendment(name string) bool {
	return amendmentPattern.MatchString(foldName(name))
}

// AmendmentNumber extracts the amendment number embedded in a filename.
// A name that classifies as an amendment but carries no digits defaults
// to 1. The second return is false when the name is not an amendment.
func AmendmentNumber(name string) (int, bool) {
	folded := foldName(name)
	if !amendmentPattern.MatchString(folded) {
		return 0, false
	}
	if m := amendmentNumber.FindStringSubmatch(folded); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}
	return 1, true
}

// MinutesNumber extracts the negotiation-minutes (acta) number from a
// filename. The second return is false when no acta number is present.
func MinutesNumber(name string) (int, bool) {
	if m := minutesNumber.FindStringSubmatch(foldName(name)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// SpreadsheetPriority returns the extension priority for a filename and
// whether the extension is a supported spreadsheet format.
func SpreadsheetPriority(name string) (int, bool) {
	p, ok := extensionPriority[strings.ToLower(filepath.Ext(name))]
	return p, ok
}

// Candidate is a classified directory entry.
type Candidate struct {
	Name            string
	Extension       string
	Priority        int
	IsAmendment     bool
	AmendmentNumber int // 0 unless IsAmendment
	MinutesNumber   int // 0 when the name carries no acta number
}

func classify(name string) (Candidate, bool) {
	prio, ok := SpreadsheetPriority(name)
	if !ok {
		return Candidate{}, false
	}
	c := Candidate{
		Name:      name,
		Extension: strings.ToLower(filepath.Ext(name)),
		Priority:  prio,
	}
	if n, ok := AmendmentNumber(name); ok {
		c.IsAmendment = true
		c.AmendmentNumber = n
	}
	if n, ok := MinutesNumber(name); ok {
		c.MinutesNumber = n
	}
	return c, true
}

// FilterAnexo1 keeps the ANEXO 1 candidates among the given filenames,
// sorted ascending by extension priority (stable, so input order breaks
// ties).
func FilterAnexo1(names []string) []Candidate {
	var out []Candidate
	for _, name := range names {
		if !IsAnexo1(name) {
			continue
		}
		if c, ok := classify(name); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// FilterAmendments keeps the amendment files among the given filenames,
// sorted descending by amendment number (highest first).
func FilterAmendments(names []string) []Candidate {
	var out []Candidate
	for _, name := range names {
		if !IsAmendment(name) {
			continue
		}
		if c, ok := classify(name); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AmendmentNumber > out[j].AmendmentNumber })
	return out
}
