package grid

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
)

// utf8BOM is stripped when present; exports from Windows tooling
// routinely carry it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readDelimited reads .csv and .tsv files. Rows may be ragged; the
// extractor handles short rows itself.
func readDelimited(path string, sep rune) (Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Format: "csv", Err: err}
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if bom, err := br.Peek(3); err == nil && string(bom) == string(utf8BOM) {
		_, _ = br.Discard(3)
	}

	r := csv.NewReader(br)
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var g Grid
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Path: path, Format: "csv", Err: err}
		}
		row := make(Row, len(record))
		for i, field := range record {
			if field == "" {
				row[i] = nil
				continue
			}
			row[i] = field
		}
		g = append(g, row)
	}
	return g, nil
}
