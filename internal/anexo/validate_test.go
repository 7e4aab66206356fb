package anexo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anexotools/anexocon/internal/grid"
)

func validGrid() grid.Grid {
	g := make(grid.Grid, 6)
	g[2] = grid.Row{nil, "ANEXO 1 PACTADO DEL PRESTADOR"}
	g[5] = grid.Row{"CODIGO CUPS", "CUPS HOMOLOGO", "DESCRIPCION", "TARIFA", "MANUAL TARIFARIO"}
	return g
}

func TestValidateAccepts(t *testing.T) {
	v := Validate(validGrid(), "ANEXO 1.xlsx")
	assert.True(t, v.Valid)
	assert.True(t, v.HasBanner)
	assert.True(t, v.ColumnsOK)
	assert.Equal(t, 5, v.HeaderRow)
	assert.Empty(t, v.Reason)
}

func TestValidateBannerWithAccents(t *testing.T) {
	g := grid.Grid{{"ANEXO 1 PACTADO"}, {"CÓDIGO CUPS", "DESCRIPCIÓN", "TARIFA"}}
	v := Validate(g, "a.xlsx")
	assert.True(t, v.Valid)
}

func TestValidateEmptyGrid(t *testing.T) {
	v := Validate(nil, "vacio.xlsx")
	assert.False(t, v.Valid)
	assert.Equal(t, "No anexo 1 in expected format: vacio.xlsx (archivo vacío)", v.Reason)
}

func TestValidateMissingBanner(t *testing.T) {
	g := validGrid()
	g[2] = nil
	v := Validate(g, "sinbanner.xlsx")
	assert.False(t, v.Valid)
	assert.True(t, v.ColumnsOK)
	assert.Equal(t, "No anexo 1 in expected format: sinbanner.xlsx (falta encabezado POSITIVA)", v.Reason)
}

func TestValidateMissingColumns(t *testing.T) {
	g := validGrid()
	g[5] = grid.Row{"CODIGO", "NOMBRE", "VALOR"}
	v := Validate(g, "sincolumnas.xlsx")
	assert.False(t, v.Valid)
	assert.True(t, v.HasBanner)
	assert.Equal(t, -1, v.HeaderRow)
	assert.Contains(t, v.Reason, "columnas incorrectas")
}

// The banner only counts inside the first rows of the sheet.
func TestValidateBannerOutsideWindow(t *testing.T) {
	g := make(grid.Grid, bannerScanRows+2)
	g[bannerScanRows] = grid.Row{"ANEXO 1 PACTADO"}
	g[bannerScanRows+1] = grid.Row{"CUPS", "DESCRIPCION", "TARIFA"}
	v := Validate(g, "tarde.xlsx")
	assert.False(t, v.HasBanner)
	assert.Contains(t, v.Reason, "falta encabezado POSITIVA")
}
