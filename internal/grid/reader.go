package grid

import (
	"path/filepath"
	"strings"
)

// Read opens a spreadsheet file and returns its contents as a grid,
// along with the name of the sheet that was read (empty for delimited
// text formats, which have no sheets). Dispatch is purely by file
// extension. Decode failures come back as a *FormatError; unknown
// extensions wrap ErrUnsupportedFormat.
func Read(path string) (Grid, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		return readXLSX(path, selectOrFirst)
	case ".xlsb":
		return readXLSB(path, selectOrFirst)
	case ".xls":
		return readXLS(path, selectOrFirst)
	case ".csv":
		g, err := readDelimited(path, ',')
		return g, "", err
	case ".tsv":
		g, err := readDelimited(path, '\t')
		return g, "", err
	case ".ods":
		return readODS(path)
	default:
		return nil, "", &FormatError{Path: path, Format: ext, Err: ErrUnsupportedFormat}
	}
}

// ReadSheet reads one sheet of a workbook, chosen by the caller. pick
// receives the workbook's sheet names and returns the sheet to read,
// or "" when none fits. Only the workbook formats support caller
// sheet selection.
func ReadSheet(path string, pick func(names []string) string) (Grid, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		return readXLSX(path, pick)
	case ".xlsb":
		return readXLSB(path, pick)
	case ".xls":
		return readXLS(path, pick)
	default:
		return nil, "", &FormatError{Path: path, Format: ext, Err: ErrUnsupportedFormat}
	}
}
