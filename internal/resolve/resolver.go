package resolve

import (
	"fmt"

	"github.com/anexotools/anexocon/internal/anexo"
	"github.com/anexotools/anexocon/internal/registry"
)

// DocumentKind tags a resolved document.
type DocumentKind int

const (
	KindInitial DocumentKind = iota
	KindAmendment
	KindMinutes
)

// String returns the lowercase name of the kind.
func (k DocumentKind) String() string {
	switch k {
	case KindInitial:
		return "initial"
	case KindAmendment:
		return "amendment"
	case KindMinutes:
		return "minutes"
	default:
		return "unknown"
	}
}

// Selection is one document chosen for download and extraction.
type Selection struct {
	Filename string
	Kind     DocumentKind
	Number   int    // revision number; 0 for initial
	Date     string // agreement date from the registry, "" if unresolved
}

// ResolutionError reports a contract that cannot be processed at all.
type ResolutionError struct {
	Contract string
	Message  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("contract %s: %s", e.Contract, e.Message)
}

// Alert wording other tooling matches on; keep stable.
const (
	msgNoBase           = "Contract has no initial ANEXO 1 nor amendment"
	msgMinutesNoAnexo   = "Negotiation-minutes folder has no associated ANEXO 1"
	msgMinutesNoBase    = "Minutes processed without a base document; no recency filter applied"
	msgMinutesGapFormat = "No ANEXO 1 for minutes record %d – Contract %s"
)

// ResolveBase applies the base-document precedence rule to a tariff
// folder's filenames: the highest-numbered amendment with a matching
// ANEXO 1 candidate wins; otherwise the best non-amendment ANEXO 1
// candidate is the initial document. Exactly one base is selected or
// none, never both.
func ResolveBase(files []string, c *registry.Contract, log *AlertLog) (*Selection, error) {
	candidates := anexo.FilterAnexo1(files)
	if len(candidates) == 0 {
		log.Add(SeverityError, c.Number, msgNoBase)
		return nil, &ResolutionError{Contract: c.Number, Message: msgNoBase}
	}

	if amendments := anexo.FilterAmendments(files); len(amendments) > 0 {
		target := amendments[0].AmendmentNumber
		for _, cand := range candidates {
			if cand.IsAmendment && cand.AmendmentNumber == target {
				return &Selection{
					Filename: cand.Name,
					Kind:     KindAmendment,
					Number:   target,
					Date:     amendmentDate(c, target),
				}, nil
			}
		}
	}

	// No amendment matched; fall back to the first candidate that is
	// not itself an amendment file.
	for _, cand := range candidates {
		if !cand.IsAmendment {
			return &Selection{
				Filename: cand.Name,
				Kind:     KindInitial,
				Date:     c.InitialDate,
			}, nil
		}
	}

	log.Add(SeverityError, c.Number, msgNoBase)
	return nil, &ResolutionError{Contract: c.Number, Message: msgNoBase}
}

// ResolveMinutes selects every ANEXO 1 candidate in a negotiation-
// minutes folder that carries an extractable acta number. hasBase
// records whether a base document was resolved for the contract; when
// it was not, minutes are still processed, with the simplification
// noted in the trail.
func ResolveMinutes(files []string, c *registry.Contract, hasBase bool, log *AlertLog) []Selection {
	candidates := anexo.FilterAnexo1(files)
	if len(candidates) == 0 {
		log.Add(SeverityWarning, c.Number, msgMinutesNoAnexo)
		return nil
	}

	var out []Selection
	for _, cand := range candidates {
		if cand.MinutesNumber == 0 {
			continue
		}
		out = append(out, Selection{
			Filename: cand.Name,
			Kind:     KindMinutes,
			Number:   cand.MinutesNumber,
			Date:     minutesDate(c, cand.MinutesNumber),
		})
	}
	if len(out) > 0 && !hasBase {
		log.Add(SeverityInfo, c.Number, msgMinutesNoBase)
	}
	return out
}

// DetectGaps alerts on minutes numbers expected but never processed.
// Two passes: registry entries absent from processed, then holes in
// the contiguous range 1..max(processed). The log's dedupe keeps a
// number flagged by both passes to a single alert.
func DetectGaps(c *registry.Contract, processed []int, log *AlertLog) {
	done := make(map[int]struct{}, len(processed))
	max := 0
	for _, n := range processed {
		done[n] = struct{}{}
		if n > max {
			max = n
		}
	}

	for _, e := range c.Minutes {
		if _, ok := done[e.Number]; !ok {
			log.Add(SeverityWarning, c.Number, fmt.Sprintf(msgMinutesGapFormat, e.Number, c.Number))
		}
	}
	for n := 1; n <= max; n++ {
		if _, ok := done[n]; !ok {
			log.Add(SeverityWarning, c.Number, fmt.Sprintf(msgMinutesGapFormat, n, c.Number))
		}
	}
}

func amendmentDate(c *registry.Contract, number int) string {
	for _, e := range c.Amendments {
		if e.Number == number {
			return e.Date
		}
	}
	return ""
}

func minutesDate(c *registry.Contract, number int) string {
	for _, e := range c.Minutes {
		if e.Number == number {
			return e.Date
		}
	}
	return ""
}
