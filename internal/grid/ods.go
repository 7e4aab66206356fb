package grid

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
)

// maxODSRepeat caps number-columns-repeated expansion; ODS writers pad
// the final cell of a row out to the 16k column limit.
const maxODSRepeat = 256

// readODS reads OpenDocument spreadsheets. content.xml is decoded with
// a token walk over the three elements that matter: table, table-row
// and table-cell.
func readODS(path string) (Grid, string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", &FormatError{Path: path, Format: "ods", Err: err}
	}
	defer zr.Close()

	var content io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "content.xml" {
			content, err = f.Open()
			if err != nil {
				return nil, "", &FormatError{Path: path, Format: "ods", Err: err}
			}
			break
		}
	}
	if content == nil {
		return nil, "", &FormatError{Path: path, Format: "ods", Err: errors.New("content.xml missing")}
	}
	defer content.Close()

	tables, err := parseODSContent(content)
	if err != nil {
		return nil, "", &FormatError{Path: path, Format: "ods", Err: err}
	}
	if len(tables) == 0 {
		return nil, "", &FormatError{Path: path, Format: "ods", Err: errors.New("document has no tables")}
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.name
	}
	target := selectOrFirst(names)
	for _, t := range tables {
		if t.name == target {
			return t.grid, t.name, nil
		}
	}
	return tables[0].grid, tables[0].name, nil
}

type odsTable struct {
	name string
	grid Grid
}

func parseODSContent(r io.Reader) ([]odsTable, error) {
	dec := xml.NewDecoder(r)

	var (
		tables  []odsTable
		current *odsTable
		row     Row
		inRow   bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "table":
				tables = append(tables, odsTable{name: attr(el, "name")})
				current = &tables[len(tables)-1]
			case "table-row":
				row = nil
				inRow = current != nil
			case "table-cell":
				if !inRow {
					continue
				}
				cell, repeat, err := parseODSCell(dec, el)
				if err != nil {
					return nil, err
				}
				if repeat > maxODSRepeat {
					repeat = maxODSRepeat
				}
				for i := 0; i < repeat; i++ {
					row = append(row, cell)
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "table-row":
				if inRow && current != nil {
					current.grid = append(current.grid, trimTrailingNil(row))
				}
				inRow = false
			case "table":
				current = nil
			}
		}
	}
	return tables, nil
}

// parseODSCell consumes one table-cell element, returning its value and
// repeat count. Numeric cells carry office:value; text cells carry
// their value in nested text:p elements.
func parseODSCell(dec *xml.Decoder, start xml.StartElement) (Cell, int, error) {
	repeat := 1
	if s := attr(start, "number-columns-repeated"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 1 {
			repeat = n
		}
	}

	valueType := attr(start, "value-type")
	rawValue := attr(start, "value")

	var textParts []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, 0, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
			_ = el
		case xml.CharData:
			if s := string(el); strings.TrimSpace(s) != "" {
				textParts = append(textParts, s)
			}
		}
	}

	switch valueType {
	case "float", "currency", "percentage":
		if f, err := strconv.ParseFloat(rawValue, 64); err == nil {
			return f, repeat, nil
		}
	case "boolean":
		return strings.EqualFold(attr(start, "boolean-value"), "true"), repeat, nil
	}
	if text := strings.TrimSpace(strings.Join(textParts, " ")); text != "" {
		return text, repeat, nil
	}
	return nil, repeat, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func trimTrailingNil(r Row) Row {
	for len(r) > 0 && r[len(r)-1] == nil {
		r = r[:len(r)-1]
	}
	return r
}
