package anexo

// Layout maps logical tariff fields to grid column indexes. The
// offsets were discovered empirically on the provider format; keeping
// them in one declarative table isolates the format coupling instead
// of scattering literals through the extractor.
type Layout struct {
	// Site attribute columns, read from the row following a
	// site-header marker.
	SiteMunicipality int
	SiteHabilitation int
	SiteNumber       int
	SiteName         int

	// Service columns relative to the CUPS column. When a row leads
	// with a numeric item-sequence number, every service column
	// shifts right by one.
	CUPS         int
	Homologous   int
	Description  int
	Tariff       int
	Manual       int
	ManualRate   int
	Observations int
}

// DefaultLayout is the column schema of the standard ANEXO 1 sheet.
var DefaultLayout = Layout{
	SiteMunicipality: 1,
	SiteHabilitation: 2,
	SiteNumber:       3,
	SiteName:         4,

	CUPS:         0,
	Homologous:   1,
	Description:  2,
	Tariff:       3,
	Manual:       4,
	ManualRate:   5,
	Observations: 6,
}
