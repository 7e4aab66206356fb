// Package registry reads the master contract registry (the "maestra"),
// a workbook listing every provider agreement with its amendment and
// negotiation-minutes schedule. The registry is read-only reference
// data; nothing here mutates it.
package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/anexotools/anexocon/internal/grid"
	"github.com/anexotools/anexocon/internal/text"
)

// Entry is one scheduled revision: an amendment (otrosí) or a
// negotiation-minutes record (acta), with its agreed date.
type Entry struct {
	Number int
	Date   string // DD/MM/YYYY, empty when the registry has no date
}

// Contract is one provider agreement as the registry records it.
type Contract struct {
	Number      string // format <id>-<year>
	InitialDate string
	Amendments  []Entry
	Minutes     []Entry
}

// Year returns the contract's year suffix, or "" when the number does
// not carry one.
func (c *Contract) Year() string {
	if i := strings.LastIndex(c.Number, "-"); i >= 0 && i+1 < len(c.Number) {
		return c.Number[i+1:]
	}
	return ""
}

// Registry column positions, 0-indexed. The maestra layout is fixed;
// each revision slot is a (marker cell, date cell) column pair.
const (
	colContractNumber = 11
	colInitialDate    = 12
)

var (
	amendmentCols = [][2]int{{15, 16}, {18, 19}, {21, 22}, {24, 25}}
	minutesCols   = [][2]int{{72, 73}, {76, 77}, {80, 81}, {84, 85}, {88, 89}}
)

// Provider rows are filtered by type; only health providers carry
// ANEXO 1 tariff schedules.
var providerTypeKeywords = []string{"PRESTADOR", "SALUD"}

// Info summarizes a loaded registry file.
type Info struct {
	Path      string
	Sheet     string
	Size      int64
	Modified  time.Time
	Contracts int
	LoadedAt  time.Time
}

// Maestra is the loaded registry: contracts indexed by number, load
// order preserved.
type Maestra struct {
	contracts map[string]*Contract
	order     []string
	info      Info
}

// Manager loads and queries the registry file.
type Manager struct {
	path string
}

// NewManager returns a manager for the registry workbook at path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads the registry workbook and builds the contract index.
func (m *Manager) Load() (*Maestra, error) {
	st, err := os.Stat(m.path)
	if err != nil {
		return nil, fmt.Errorf("registry file: %w", err)
	}

	g, sheet, err := grid.ReadSheet(m.path, pickRegistrySheet)
	if err != nil {
		return nil, fmt.Errorf("registry workbook: %w", err)
	}

	ma, err := buildMaestra(g)
	if err != nil {
		return nil, err
	}
	ma.info = Info{
		Path:      m.path,
		Sheet:     sheet,
		Size:      st.Size(),
		Modified:  st.ModTime(),
		Contracts: len(ma.contracts),
		LoadedAt:  time.Now(),
	}
	return ma, nil
}

// buildMaestra indexes the contract rows of a registry grid. Row 0 is
// the header; data rows are filtered to health providers.
func buildMaestra(g grid.Grid) (*Maestra, error) {
	if len(g) < 2 {
		return nil, errors.New("registry sheet has no data rows")
	}
	typeCol, ok := findProviderTypeColumn(g[0])
	if !ok {
		return nil, errors.New("registry sheet has no provider-type column")
	}

	ma := &Maestra{contracts: make(map[string]*Contract)}
	for i := 1; i < len(g); i++ {
		row := g[i]
		if !isHealthProvider(row, typeCol) {
			continue
		}
		number := grid.CellString(rowCell(row, colContractNumber))
		if number == "" {
			continue
		}
		c := &Contract{
			Number:      number,
			InitialDate: normalizeDate(rowCell(row, colInitialDate)),
		}
		for n, cols := range amendmentCols {
			if e, ok := readEntry(row, n+1, cols); ok {
				c.Amendments = append(c.Amendments, e)
			}
		}
		for n, cols := range minutesCols {
			if e, ok := readEntry(row, n+1, cols); ok {
				c.Minutes = append(c.Minutes, e)
			}
		}
		if _, dup := ma.contracts[number]; !dup {
			ma.order = append(ma.order, number)
		}
		ma.contracts[number] = c
	}

	if len(ma.contracts) == 0 {
		return nil, errors.New("registry sheet has no health-provider contracts")
	}
	return ma, nil
}

// pickRegistrySheet locates the active-contracts sheet by name.
func pickRegistrySheet(names []string) string {
	for _, name := range names {
		if text.ContainsAll(name, "CONTRATO", "VIGENTE") {
			return name
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

func findProviderTypeColumn(header grid.Row) (int, bool) {
	for i, c := range header {
		if text.ContainsAll(grid.CellString(c), "TIPO", "PROVEEDOR") {
			return i, true
		}
	}
	return 0, false
}

func isHealthProvider(row grid.Row, typeCol int) bool {
	return text.ContainsAll(grid.CellString(rowCell(row, typeCol)), providerTypeKeywords...)
}

// readEntry reads one (marker, date) column pair. The entry exists
// when either cell holds a value.
func readEntry(row grid.Row, number int, cols [2]int) (Entry, bool) {
	marker := rowCell(row, cols[0])
	date := rowCell(row, cols[1])
	if grid.Empty(marker) && grid.Empty(date) {
		return Entry{}, false
	}
	return Entry{Number: number, Date: normalizeDate(date)}, true
}

func rowCell(row grid.Row, col int) grid.Cell {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// Get returns the contract with the given number.
func (ma *Maestra) Get(number string) (*Contract, bool) {
	c, ok := ma.contracts[number]
	return c, ok
}

// Search returns contracts whose number contains term, in load order.
func (ma *Maestra) Search(term string) []*Contract {
	folded := text.Fold(term)
	var out []*Contract
	for _, number := range ma.order {
		if strings.Contains(text.Fold(number), folded) {
			out = append(out, ma.contracts[number])
		}
	}
	return out
}

// ByYear returns contracts whose number ends in the given year,
// sorted by number.
func (ma *Maestra) ByYear(year string) []*Contract {
	var out []*Contract
	for _, number := range ma.order {
		c := ma.contracts[number]
		if c.Year() == year {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// All returns every contract in load order.
func (ma *Maestra) All() []*Contract {
	out := make([]*Contract, 0, len(ma.order))
	for _, number := range ma.order {
		out = append(out, ma.contracts[number])
	}
	return out
}

// Info returns the load-time file summary.
func (ma *Maestra) Info() Info { return ma.info }
