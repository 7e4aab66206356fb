package grid

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Resumen"))
	_, err := f.NewSheet("TARIFAS SERVICIOS")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Resumen", "A1", "nada que ver"))
	require.NoError(t, f.SetCellValue("TARIFAS SERVICIOS", "A1", "ANEXO 1 PACTADO"))
	require.NoError(t, f.SetCellValue("TARIFAS SERVICIOS", "A3", "CUP001"))
	require.NoError(t, f.SetCellValue("TARIFAS SERVICIOS", "B3", 50000))

	path := filepath.Join(t.TempDir(), "tarifas.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	g, sheet, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "TARIFAS SERVICIOS", sheet)
	require.Len(t, g, 3)
	assert.Equal(t, "ANEXO 1 PACTADO", CellString(g.Cell(0, 0)))
	assert.Equal(t, "CUP001", CellString(g.Cell(2, 0)))
	tarifa, ok := CellFloat(g.Cell(2, 1))
	assert.True(t, ok)
	assert.Equal(t, 50000.0, tarifa)
}

// writeZip builds a zip file from part name to part body.
func writeZip(t *testing.T, path string, parts map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestReadODS(t *testing.T) {
	content := `<?xml version="1.0" encoding="UTF-8"?>
<document-content>
 <body>
  <spreadsheet>
   <table name="Resumen">
    <table-row><table-cell value-type="string"><p>nada</p></table-cell></table-row>
   </table>
   <table name="Relación de Servicios">
    <table-row>
     <table-cell value-type="string"><p>ANEXO 1 PACTADO</p></table-cell>
    </table-row>
    <table-row>
     <table-cell value-type="string"><p>CUP001</p></table-cell>
     <table-cell value-type="float" value="50000"/>
     <table-cell value-type="boolean" boolean-value="true"/>
     <table-cell number-columns-repeated="4"/>
    </table-row>
   </table>
  </spreadsheet>
 </body>
</document-content>`

	path := filepath.Join(t.TempDir(), "tarifas.ods")
	writeZip(t, path, map[string][]byte{"content.xml": []byte(content)})

	g, sheet, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "Relación de Servicios", sheet)
	require.Len(t, g, 2)
	assert.Equal(t, "ANEXO 1 PACTADO", CellString(g.Cell(0, 0)))
	// Repeated trailing empty cells are trimmed off the row.
	require.Len(t, g[1], 3)
	assert.Equal(t, "CUP001", CellString(g.Cell(1, 0)))
	assert.Equal(t, 50000.0, g.Cell(1, 1))
	assert.Equal(t, true, g.Cell(1, 2))
}

// biffRecord frames one BIFF12 record: 1-2 byte id, varint length,
// payload.
func biffRecord(id uint16, payload []byte) []byte {
	var b []byte
	if id < 0x80 {
		b = append(b, byte(id))
	} else {
		b = append(b, byte(id&0x7F)|0x80, byte(id>>7))
	}
	n := len(payload)
	for {
		c := byte(n & 0x7F)
		n >>= 7
		if n > 0 {
			b = append(b, c|0x80)
		} else {
			b = append(b, c)
			break
		}
	}
	return append(b, payload...)
}

func xlWideString(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := binary.LittleEndian.AppendUint32(nil, uint32(len(units)))
	for _, u := range units {
		b = binary.LittleEndian.AppendUint16(b, u)
	}
	return b
}

// cellPayload prefixes the column index and a zero style ref.
func cellPayload(col uint32, rest []byte) []byte {
	b := binary.LittleEndian.AppendUint32(nil, col)
	b = binary.LittleEndian.AppendUint32(b, 0)
	return append(b, rest...)
}

func TestReadXLSB(t *testing.T) {
	rels := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<Relationships>
 <Relationship Id="rId1" Target="worksheets/sheet1.bin"/>
</Relationships>`)

	bundle := make([]byte, 8) // hsState + iTabID
	bundle = append(bundle, xlWideString("rId1")...)
	bundle = append(bundle, xlWideString("Tarifas Servicios")...)
	workbook := biffRecord(brtBundleSh, bundle)

	sst := biffRecord(brtSstItem, append([]byte{0}, xlWideString("ANEXO 1 PACTADO")...))

	var sheet []byte
	sheet = append(sheet, biffRecord(brtRowHdr, binary.LittleEndian.AppendUint32(nil, 0))...)
	sheet = append(sheet, biffRecord(brtCellIsst, cellPayload(0, binary.LittleEndian.AppendUint32(nil, 0)))...)
	// Row 1 carries no records; the reader pads it out.
	sheet = append(sheet, biffRecord(brtRowHdr, binary.LittleEndian.AppendUint32(nil, 2))...)
	sheet = append(sheet, biffRecord(brtCellSt, cellPayload(0, xlWideString("CUP001")))...)
	sheet = append(sheet, biffRecord(brtCellRk, cellPayload(1, binary.LittleEndian.AppendUint32(nil, 50000<<2|0x2)))...)
	sheet = append(sheet, biffRecord(brtCellReal, cellPayload(2, binary.LittleEndian.AppendUint64(nil, math.Float64bits(1250.5))))...)
	sheet = append(sheet, biffRecord(brtCellBool, cellPayload(3, []byte{1}))...)
	sheet = append(sheet, biffRecord(brtEndSheetData, nil)...)

	path := filepath.Join(t.TempDir(), "tarifas.xlsb")
	writeZip(t, path, map[string][]byte{
		"xl/_rels/workbook.bin.rels": rels,
		"xl/workbook.bin":            workbook,
		"xl/sharedStrings.bin":       sst,
		"xl/worksheets/sheet1.bin":   sheet,
	})

	g, name, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "Tarifas Servicios", name)
	require.Len(t, g, 3)
	assert.Equal(t, "ANEXO 1 PACTADO", CellString(g.Cell(0, 0)))
	assert.Empty(t, g[1])
	assert.Equal(t, "CUP001", CellString(g.Cell(2, 0)))
	assert.Equal(t, 50000.0, g.Cell(2, 1))
	assert.Equal(t, 1250.5, g.Cell(2, 2))
	assert.Equal(t, true, g.Cell(2, 3))
}

func TestReadXLSBNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roto.xlsb")
	require.NoError(t, os.WriteFile(path, []byte("no es un zip"), 0o644))

	_, _, err := Read(path)
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "xlsb", fe.Format)
}
