package consolidate

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Consolidado"

// Output column names, row 2 of the artifact. The first eight columns
// describe the pacted tariff, the last three the owning agreement.
var columnNames = []string{
	"CODIGO CUPS",
	"CODIGO HOMOLOGO MANUAL",
	"DESCRIPCION DEL CUPS",
	"TARIFA UNITARIA EN PESOS",
	"MANUAL TARIFARIO",
	"PORCENTAJE MANUAL TARIFARIO",
	"OBSERVACIONES",
	"CODIGO DE HABILITACION",
	"FECHA ACUERDO",
	"NUMERO CONTRATO AÑO",
	"ORIGEN TARIFA",
}

var columnWidths = []float64{12, 12, 50, 18, 20, 22, 30, 20, 15, 20, 15}

// OutputFilename builds the artifact name for a run.
func OutputFilename(base string, now time.Time) string {
	return fmt.Sprintf("CONSOLIDADO_%s_%s.xlsx", base, now.Format("20060102_150405"))
}

// WriteWorkbook writes the consolidated records to an xlsx artifact:
// row 1 carries the merged section banners, row 2 the column names,
// data from row 3. A "REPLICADA" marker column is appended only when
// some record came from an undifferentiated multi-site document.
func WriteWorkbook(path string, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	withReplicated := anyReplicated(records)
	names := columnNames
	widths := columnWidths
	if withReplicated {
		names = append(append([]string{}, columnNames...), "REPLICADA")
		widths = append(append([]float64{}, columnWidths...), 12)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	// Row 1: section banners.
	if err := f.MergeCell(sheetName, "A1", "H1"); err != nil {
		return fmt.Errorf("merge banner: %w", err)
	}
	lastInfo := cellName(len(names)-1, 1)
	if err := f.MergeCell(sheetName, "I1", lastInfo); err != nil {
		return fmt.Errorf("merge banner: %w", err)
	}
	f.SetCellValue(sheetName, "A1", "ANEXO 1 PACTADO DEL PRESTADOR")
	f.SetCellValue(sheetName, "I1", "INFO ACTA O ACUERDO")

	// Row 2: column names.
	for i, name := range names {
		f.SetCellValue(sheetName, cellName(i, 2), name)
	}
	last := cellName(len(names)-1, 2)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i, r := range records {
		row := i + 3
		values := []any{
			r.CUPS, r.Homologous, r.Description, tariffValue(r.Tariff),
			r.Manual, r.ManualRate, r.Observations, r.HabilitationCode,
			r.AgreementDate, r.Contract, r.Origin,
		}
		if withReplicated {
			marker := ""
			if r.Replicated {
				marker = "SI"
			}
			values = append(values, marker)
		}
		for j, v := range values {
			if v == nil {
				continue
			}
			f.SetCellValue(sheetName, cellName(j, row), v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func anyReplicated(records []Record) bool {
	for _, r := range records {
		if r.Replicated {
			return true
		}
	}
	return false
}

func tariffValue(t *float64) any {
	if t == nil {
		return nil
	}
	return *t
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
