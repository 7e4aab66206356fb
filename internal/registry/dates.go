package registry

import (
	"math"
	"time"

	"github.com/anexotools/anexocon/internal/grid"
)

const dateLayout = "02/01/2006"

// serialEpoch is the workbook date origin. Day 1 is 1900-01-01, and
// the phantom 1900-02-29 leap day shifts the effective epoch to
// 1899-12-30.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// normalizeDate renders a registry date cell as DD/MM/YYYY. Numeric
// cells are workbook serial dates; string cells pass through as
// recorded.
func normalizeDate(c grid.Cell) string {
	switch v := c.(type) {
	case time.Time:
		return v.Format(dateLayout)
	case float64:
		if v <= 0 {
			return ""
		}
		days := int(math.Floor(v))
		return serialEpoch.AddDate(0, 0, days).Format(dateLayout)
	default:
		return grid.CellString(c)
	}
}
