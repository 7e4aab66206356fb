package anexo

import (
	"math"
	"strings"

	"github.com/anexotools/anexocon/internal/grid"
	"github.com/anexotools/anexocon/internal/text"
)

// Site is a provider location, immutable once built during the
// header-marker scan.
type Site struct {
	HabilitationCode string
	Number           string // normalized, 2-digit zero-padded
	Name             string
	Municipality     string
}

// Key is the site identity within one document: habilitation code plus
// normalized site number.
func (s Site) Key() string {
	return s.HabilitationCode + "-" + s.Number
}

// ServiceLine is one tariff entry belonging to exactly one site.
type ServiceLine struct {
	CUPS         string
	Homologous   string
	Description  string
	Tariff       *float64 // nil when the cell is empty or non-numeric
	Manual       string
	ManualRate   string
	Observations string
}

// SiteServices pairs a site with its extracted tariff lines.
type SiteServices struct {
	Site     Site
	Services []ServiceLine
}

// ExtractResult is the outcome of walking a validated grid.
type ExtractResult struct {
	Groups []SiteServices
	// Replicated marks the undifferentiated multi-site case: several
	// site markers but a single shared service table, replicated
	// across all discovered sites.
	Replicated    bool
	SitesFound    int
	TotalServices int
}

// StructuralError reports a validated grid from which no sites or
// services could be extracted.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string { return e.Reason }

// cupsRejectSet filters stray header/footer rows that would otherwise
// parse as service lines.
var cupsRejectSet = map[string]struct{}{
	"CODIGO":      {},
	"CUPS":        {},
	"DESCRIPCION": {},
	"TARIFA":      {},
	"MANUAL":      {},
	"TOTAL":       {},
	"ITEM":        {},
}

const siteMarker = "CODIGO DE HABILITACION"

// extractor states. The walk cycles back to seekingSiteHeader whenever
// a new site-header marker row appears.
type scanState int

const (
	seekingSiteHeader scanState = iota
	seekingServiceHeader
	readingServices
)

// Extract walks a validated grid and produces (site, service-lines)
// groups using the default column layout.
func Extract(g grid.Grid) (*ExtractResult, error) {
	return ExtractWithLayout(g, DefaultLayout)
}

// ExtractWithLayout runs the extraction state machine with an explicit
// column schema.
func ExtractWithLayout(g grid.Grid, layout Layout) (*ExtractResult, error) {
	if len(g) == 0 {
		return nil, &StructuralError{Reason: "empty grid"}
	}

	var (
		state      = seekingSiteHeader
		current    *Site
		services   []ServiceLine
		groups     []SiteServices
		discovered []Site
	)

	flush := func() {
		if current != nil && len(services) > 0 {
			groups = appendGroup(groups, SiteServices{Site: *current, Services: services})
		}
		services = nil
	}

	for i := 0; i < len(g); i++ {
		if isSiteMarkerRow(g[i]) {
			flush()
			site := readSite(g, i+1, layout)
			current = &site
			discovered = appendSite(discovered, site)
			state = seekingServiceHeader
			continue
		}

		if isServiceHeaderRow(g[i]) {
			state = readingServices
			continue
		}

		if state == readingServices && current != nil {
			if line, ok := readServiceLine(g[i], layout); ok {
				services = append(services, line)
			}
		}
	}
	flush()

	if len(discovered) == 0 {
		return nil, &StructuralError{Reason: "no site markers found"}
	}

	result := &ExtractResult{Groups: groups, SitesFound: len(discovered)}

	// Undifferentiated multi-site layout: several site markers but a
	// single service table means no per-site breakdown existed. The
	// one table is replicated across every discovered site; callers
	// flag this distinctly rather than treating it as a true
	// breakdown.
	if len(discovered) > 1 && len(groups) == 1 {
		shared := groups[0].Services
		replicated := make([]SiteServices, 0, len(discovered))
		for _, site := range discovered {
			replicated = appendGroup(replicated, SiteServices{Site: site, Services: shared})
		}
		result.Groups = replicated
		result.Replicated = true
	}

	for _, grp := range result.Groups {
		result.TotalServices += len(grp.Services)
	}
	return result, nil
}

// appendGroup enforces site-key uniqueness within one document: a later
// group with an existing key overwrites the earlier one in place.
func appendGroup(groups []SiteServices, next SiteServices) []SiteServices {
	for i := range groups {
		if groups[i].Site.Key() == next.Site.Key() {
			groups[i] = next
			return groups
		}
	}
	return append(groups, next)
}

// appendSite mirrors appendGroup for the discovery list.
func appendSite(sites []Site, next Site) []Site {
	for i := range sites {
		if sites[i].Key() == next.Key() {
			sites[i] = next
			return sites
		}
	}
	return append(sites, next)
}

func isSiteMarkerRow(row grid.Row) bool {
	for _, c := range row {
		if strings.Contains(foldCell(c), siteMarker) {
			return true
		}
	}
	return false
}

// isServiceHeaderRow detects the tariff-table header: a cell carrying
// "CODIGO CUPS", or an "ITEM" cell followed by a cell mentioning
// CODIGO or CUPS.
func isServiceHeaderRow(row grid.Row) bool {
	sawItem := false
	for _, c := range row {
		folded := foldCell(c)
		if folded == "" {
			continue
		}
		if strings.Contains(folded, "CODIGO CUPS") {
			return true
		}
		if sawItem && (strings.Contains(folded, "CODIGO") || strings.Contains(folded, "CUPS")) {
			return true
		}
		if folded == "ITEM" {
			sawItem = true
		}
	}
	return false
}

// readSite builds a Site from the row following a marker row.
func readSite(g grid.Grid, row int, layout Layout) Site {
	return Site{
		Municipality:     grid.CellString(g.Cell(row, layout.SiteMunicipality)),
		HabilitationCode: grid.CellString(g.Cell(row, layout.SiteHabilitation)),
		Number:           NormalizeSiteNumber(g.Cell(row, layout.SiteNumber)),
		Name:             grid.CellString(g.Cell(row, layout.SiteName)),
	}
}

// readServiceLine parses one candidate service row. Rows whose first
// two cells are both empty are skipped; rows whose CUPS text is a
// header keyword are stray header/footer rows, not data.
func readServiceLine(row grid.Row, layout Layout) (ServiceLine, bool) {
	if len(row) == 0 {
		return ServiceLine{}, false
	}
	first := cellAt(row, 0)
	second := cellAt(row, 1)
	if grid.Empty(first) && grid.Empty(second) {
		return ServiceLine{}, false
	}

	// A leading numeric item-sequence number shifts every field right
	// by one. The shift only applies when the next column actually
	// holds a candidate code; otherwise a purely numeric CUPS code in
	// column 0 would be mistaken for a sequence number.
	shift := 0
	if isItemSequence(first) && !grid.Empty(second) {
		shift = 1
	}

	cups := grid.CellString(cellAt(row, layout.CUPS+shift))
	if cups == "" || isRejectedCUPS(cups) {
		return ServiceLine{}, false
	}

	line := ServiceLine{
		CUPS:         cups,
		Homologous:   grid.CellString(cellAt(row, layout.Homologous+shift)),
		Description:  grid.CellString(cellAt(row, layout.Description+shift)),
		Manual:       grid.CellString(cellAt(row, layout.Manual+shift)),
		ManualRate:   grid.CellString(cellAt(row, layout.ManualRate+shift)),
		Observations: grid.CellString(cellAt(row, layout.Observations+shift)),
	}
	if f, ok := grid.CellFloat(cellAt(row, layout.Tariff+shift)); ok {
		line.Tariff = &f
	}
	return line, true
}

// NormalizeSiteNumber renders a site-number cell as the canonical
// 2-digit zero-padded string. Missing values default to "01".
func NormalizeSiteNumber(c grid.Cell) string {
	s := grid.CellString(c)
	if s == "" {
		return "01"
	}
	if f, ok := grid.CellFloat(c); ok && f == math.Trunc(f) {
		s = grid.CellString(f)
	}
	if len(s) == 1 {
		s = "0" + s
	}
	return s
}

func isItemSequence(c grid.Cell) bool {
	f, ok := grid.CellFloat(c)
	return ok && f == math.Trunc(f)
}

func isRejectedCUPS(cups string) bool {
	folded := text.Fold(cups)
	if _, rejected := cupsRejectSet[folded]; rejected {
		return true
	}
	return strings.HasPrefix(folded, "TOTAL")
}

func cellAt(row grid.Row, col int) grid.Cell {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// foldCell folds a cell's text with underscores treated as separators,
// matching how header markers appear in the wild ("CODIGO_CUPS").
func foldCell(c grid.Cell) string {
	return text.Fold(strings.ReplaceAll(grid.CellString(c), "_", " "))
}
