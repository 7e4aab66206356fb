package grid

import (
	"errors"

	"github.com/extrame/xls"
)

// readXLS reads legacy BIFF8 .xls workbooks.
func readXLS(path string, pick func([]string) string) (Grid, string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, "", &FormatError{Path: path, Format: "xls", Err: err}
	}

	names := make([]string, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		if sh := wb.GetSheet(i); sh != nil {
			names = append(names, sh.Name)
		}
	}
	target := pick(names)
	if target == "" {
		return nil, "", &FormatError{Path: path, Format: "xls", Err: errors.New("no matching sheet")}
	}

	var sheet *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		if sh := wb.GetSheet(i); sh != nil && sh.Name == target {
			sheet = sh
			break
		}
	}
	if sheet == nil {
		return nil, "", &FormatError{Path: path, Format: "xls", Err: errors.New("sheet not found: " + target)}
	}

	var g Grid
	for i := 0; i <= int(sheet.MaxRow); i++ {
		r := sheet.Row(i)
		if r == nil {
			g = append(g, Row{})
			continue
		}
		row := make(Row, 0, r.LastCol()+1)
		for j := 0; j <= r.LastCol(); j++ {
			s := r.Col(j)
			if s == "" {
				row = append(row, nil)
				continue
			}
			row = append(row, s)
		}
		g = append(g, row)
	}
	return g, target, nil
}
