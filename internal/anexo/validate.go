package anexo

import (
	"fmt"
	"strings"

	"github.com/anexotools/anexocon/internal/grid"
	"github.com/anexotools/anexocon/internal/text"
)

// Scan windows for the two validation signals.
const (
	bannerScanRows = 10
	columnScanRows = 15
)

// columnKeywords is the expected-column signature; a row carrying at
// least three of these identifies the header row of a tariff table.
var columnKeywords = []string{"CUPS", "DESCRIPCION", "TARIFA", "MANUAL", "HABILITACION"}

// minColumnHits is how many signature keywords one row must carry.
const minColumnHits = 3

// Validation is the outcome of the tariff-layout check.
type Validation struct {
	Valid     bool
	Reason    string // human-readable, embeds the filename; alert text depends on this format
	HasBanner bool
	ColumnsOK bool
	HeaderRow int // row index of the column signature, -1 when absent
}

// ValidationError is the typed form of a failed validation.
type ValidationError struct {
	Filename string
	Reason   string
}

func (e *ValidationError) Error() string { return e.Reason }

// invalidReason builds the fixed failure message format. Other
// components match on this text, keep it stable.
func invalidReason(filename, category string) string {
	return fmt.Sprintf("No anexo 1 in expected format: %s (%s)", filename, category)
}

// Validate verifies a grid conforms to the expected ANEXO 1 layout:
// the "ANEXO 1 PACTADO" banner within the first rows, and a row
// carrying enough of the expected column labels.
func Validate(g grid.Grid, filename string) Validation {
	v := Validation{HeaderRow: -1}

	if len(g) == 0 {
		v.Reason = invalidReason(filename, "archivo vacío")
		return v
	}

	for i := 0; i < bannerScanRows && i < len(g); i++ {
		for _, c := range g[i] {
			if text.ContainsAll(grid.CellString(c), "ANEXO", "1", "PACTADO") {
				v.HasBanner = true
				break
			}
		}
		if v.HasBanner {
			break
		}
	}

	for i := 0; i < columnScanRows && i < len(g); i++ {
		rowText := text.Fold(g.RowText(i))
		hits := 0
		for _, kw := range columnKeywords {
			if strings.Contains(rowText, kw) {
				hits++
			}
		}
		if hits >= minColumnHits {
			v.ColumnsOK = true
			v.HeaderRow = i
			break
		}
	}

	v.Valid = v.HasBanner && v.ColumnsOK
	switch {
	case v.Valid:
		v.Reason = ""
	case !v.HasBanner:
		v.Reason = invalidReason(filename, "falta encabezado POSITIVA")
	default:
		v.Reason = invalidReason(filename, "columnas incorrectas")
	}
	return v
}
