package grid

import (
	"errors"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads .xlsx/.xlsm workbooks with excelize. Rows are streamed
// through the row iterator instead of materializing the whole sheet;
// tariff workbooks run to tens of MB.
func readXLSX(path string, pick func([]string) string) (Grid, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", &FormatError{Path: path, Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheet := pick(f.GetSheetList())
	if sheet == "" {
		return nil, "", &FormatError{Path: path, Format: "xlsx", Err: errors.New("no matching sheet")}
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, "", &FormatError{Path: path, Format: "xlsx", Err: err}
	}
	defer rows.Close()

	var g Grid
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, "", &FormatError{Path: path, Format: "xlsx", Err: err}
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if c == "" {
				row[i] = nil
				continue
			}
			row[i] = c
		}
		g = append(g, row)
	}
	if err := rows.Error(); err != nil {
		return nil, "", &FormatError{Path: path, Format: "xlsx", Err: err}
	}
	return g, sheet, nil
}
