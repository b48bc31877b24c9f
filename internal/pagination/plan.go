// Package pagination plans the pages of a ticket and captures them in order.
package pagination

import (
	"fmt"

	"github.com/gompdf/cutticket/internal/layout"
	"github.com/gompdf/cutticket/internal/pages"
	"github.com/gompdf/cutticket/internal/record"
)

// ReferencesPerPage is the number of reference attachments on one page.
const ReferencesPerPage = 2

// PageKind distinguishes the two page layouts
type PageKind int

const (
	Main PageKind = iota
	Reference
)

// PageSpec identifies one page of the output
type PageSpec struct {
	Kind PageKind
	// Start is the first reference attachment shown on a Reference page
	Start int
}

func (s PageSpec) String() string {
	if s.Kind == Main {
		return "main"
	}
	return fmt.Sprintf("reference[%d:%d]", s.Start, s.Start+ReferencesPerPage)
}

// Build composes the page tree for rec
func (s PageSpec) Build(rec *record.Record) *layout.Node {
	if s.Kind == Main {
		return pages.Main(rec)
	}
	return pages.Reference(rec, s.Start)
}

// Plan returns the ordered pages for rec: the main page followed by one
// reference page per pair of attachments.
func Plan(rec *record.Record) []PageSpec {
	n := len(rec.ReferencePhotos)
	plan := make([]PageSpec, 0, PageCount(n))
	plan = append(plan, PageSpec{Kind: Main})
	for start := 0; start < n; start += ReferencesPerPage {
		plan = append(plan, PageSpec{Kind: Reference, Start: start})
	}
	return plan
}

// PageCount returns 1 + ceil(refs/2)
func PageCount(refs int) int {
	if refs < 0 {
		refs = 0
	}
	return 1 + (refs+ReferencesPerPage-1)/ReferencesPerPage
}
