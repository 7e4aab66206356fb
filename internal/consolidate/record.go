// Package consolidate merges extracted tariff documents into the
// consolidated output table and writes the result artifacts.
package consolidate

import (
	"fmt"

	"github.com/anexotools/anexocon/internal/anexo"
	"github.com/anexotools/anexocon/internal/registry"
	"github.com/anexotools/anexocon/internal/resolve"
)

// Record is one consolidated output row.
type Record struct {
	CUPS             string
	Homologous       string
	Description      string
	Tariff           *float64
	Manual           string
	ManualRate       string
	Observations     string
	HabilitationCode string // full key <code>-<NN>
	AgreementDate    string // "" when unresolved
	Contract         string
	Origin           string
	Replicated       bool
}

// Document is one processed source document: its selection plus what
// the extractor produced from it.
type Document struct {
	Selection resolve.Selection
	Result    *anexo.ExtractResult
}

// originLabel renders the provenance tag for one document.
func originLabel(sel resolve.Selection) string {
	switch sel.Kind {
	case resolve.KindInitial:
		return "Inicial"
	case resolve.KindAmendment:
		return fmt.Sprintf("Otrosí %d", sel.Number)
	case resolve.KindMinutes:
		return fmt.Sprintf("Acta %d", sel.Number)
	default:
		return "Desconocido"
	}
}

// Consolidate flattens the processed documents into output records.
// Emission order is stable: document order, then site order within
// each document, then original service-line order. No re-sorting;
// presentation concerns sort downstream if they want to.
func Consolidate(docs []Document, c *registry.Contract) []Record {
	var out []Record
	for _, doc := range docs {
		if doc.Result == nil {
			continue
		}
		origin := originLabel(doc.Selection)
		for _, grp := range doc.Result.Groups {
			key := grp.Site.Key()
			for _, line := range grp.Services {
				out = append(out, Record{
					CUPS:             line.CUPS,
					Homologous:       line.Homologous,
					Description:      line.Description,
					Tariff:           line.Tariff,
					Manual:           line.Manual,
					ManualRate:       line.ManualRate,
					Observations:     line.Observations,
					HabilitationCode: key,
					AgreementDate:    doc.Selection.Date,
					Contract:         c.Number,
					Origin:           origin,
					Replicated:       doc.Result.Replicated,
				})
			}
		}
	}
	return out
}
