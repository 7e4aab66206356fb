package grid

import "github.com/anexotools/anexocon/internal/text"

// sheetTiers is the name-matching policy for locating the tariff sheet
// in a multi-sheet workbook. The first tier with any hit wins; within a
// tier, ties break by workbook order.
var sheetTiers = [][]string{
	{"TARIFA", "SERV"},
	{"SERV", "MEDICO"},
	{"RELACION", "SERV"},
	{"SERV"},
}

// SelectSheet picks the sheet most likely to contain tariff data.
// Returns false when no tier matches; callers must treat that as
// "cannot locate tariff sheet" and abort extraction for the file.
func SelectSheet(names []string) (string, bool) {
	for _, keywords := range sheetTiers {
		for _, name := range names {
			if text.ContainsAll(name, keywords...) {
				return name, true
			}
		}
	}
	return "", false
}

// selectOrFirst is the in-package policy for readers: prefer the tariff
// sheet, fall back to the first sheet so single-sheet workbooks whose
// sheet carries an unexpected name still load.
func selectOrFirst(names []string) string {
	if name, ok := SelectSheet(names); ok {
		return name
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}
