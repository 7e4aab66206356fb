// Package text provides accent-insensitive text normalization.
// Every keyword match in the tariff pipeline goes through Fold so that
// "CÓDIGO" and "CODIGO" (and their lowercase forms) compare equal.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after NFD decomposition.
var stripMarks = runes.Remove(runes.In(unicode.Mn))

// Fold returns s upper-cased with diacritics removed and interior
// whitespace collapsed to single spaces.
func Fold(s string) string {
	// transform.Chain values buffer state between links, so the chain is
	// built per call rather than shared across goroutines.
	out, _, err := transform.String(transform.Chain(norm.NFD, stripMarks, norm.NFC), s)
	if err != nil {
		// Transformation only fails on malformed UTF-8; fall back to
		// the raw input rather than dropping the value.
		out = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(out)), " ")
}

// Contains reports whether Fold(s) contains Fold(substr).
func Contains(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// ContainsAll reports whether Fold(s) contains every substring.
func ContainsAll(s string, substrs ...string) bool {
	folded := Fold(s)
	for _, sub := range substrs {
		if !strings.Contains(folded, Fold(sub)) {
			return false
		}
	}
	return true
}
