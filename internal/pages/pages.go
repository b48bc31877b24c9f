// Package pages composes the cut-ticket pages for a record.
package pages

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gompdf/cutticket/internal/layout"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/res"
	"github.com/gompdf/cutticket/internal/res/assets"
	"github.com/gompdf/cutticket/internal/style"
)

// Node ids assigned to the page regions.
const (
	IDMainPage      = "main-page"
	IDReferencePage = "reference-page"
	IDHeader        = "header"
	IDBrand         = "brand"
	IDTitle         = "title"
	IDIdentifier    = "identifier"
	IDDueDate       = "due-date"
	IDPrimary       = "primary"
	IDNotes         = "notes"
	IDSwatchGrid    = "swatch-grid"
	IDReferenceGrid = "reference-grid"
)

// SwatchID returns the id of the swatch frame for role
func SwatchID(role record.SwatchRole) string {
	return "swatch-" + role.Key()
}

// ReferenceID returns the id of the reference cell showing attachment i
func ReferenceID(i int) string {
	return "reference-" + strconv.Itoa(i)
}

// Text shown in place of missing content.
const (
	NoPrimaryImage = "NO PRIMARY IMAGE"
	DocumentLabel  = "DOCUMENT ATTACHED"
	ReferenceLabel = "REFERENCE IMAGE"
	UntitledTitle  = "Untitled Project"
)

// BrandSource is the image source of the header mark.
const BrandSource = res.AssetScheme + assets.Brand

const (
	margin      = 40
	gap         = 24
	headerH     = 72
	ruleH       = 2
	contentW    = layout.PageWidth - 2*margin
	bodyH       = layout.PageHeight - 2*margin - headerH - ruleH - 2*gap
	columnW     = (contentW - gap) / 2
	notesH      = 300
	swatchGap   = 16
	swatchCellW = (columnW - swatchGap) / 2.0
	swatchRowH  = (bodyH - notesH - swatchGap - swatchGap) / 2.0
	swatchFrame = 268
	referenceH  = 460
)

var (
	pageStyle   = style.MustParse("padding:40px; gap:24px; background:#ffffff")
	headerStyle = style.MustParse("flex-direction:row; align-items:center; gap:16px")
	ruleStyle   = style.MustParse("background:#1f1f1f")
	titleStyle  = style.MustParse("font-size:24px; font-weight:bold; line-height:1.2")
	idStyle     = style.MustParse("font-size:13px; color:#666666")
	labelStyle  = style.MustParse("font-size:11px; font-weight:bold; color:#777777; line-height:1.3")
	dueStyle    = style.MustParse("font-size:16px; font-weight:bold; text-align:right")
	bodyStyle   = style.MustParse("flex-direction:row; gap:24px")
	notesStyle  = style.MustParse("padding:12px; gap:8px; border:1px solid #d0d0d0; background:#fafafa")
	noteText    = style.MustParse("font-size:13px; line-height:1.45")
	swatchText  = style.MustParse("padding:10px; font-size:12px; text-align:center")
	overlay     = style.MustParse("position:absolute; bottom:0; padding:8px; background:rgba(0,0,0,0.55)")
	overlayText = style.MustParse("color:#ffffff; font-size:12px; font-weight:bold; text-align:center")
	cellStyle   = style.MustParse("border:1px solid #d0d0d0; background:#fafafa")
)

var upper = cases.Upper(language.Und)

// Main builds the first page: header, primary image, notes and swatches
func Main(rec *record.Record) *layout.Node {
	body := layout.Box(bodyStyle.Merge(style.Style{Height: bodyH}),
		primary(rec.PrimaryImage),
		layout.Box(style.Style{Width: columnW, Gap: swatchGap},
			notes(rec.Notes),
			swatchGrid(rec),
		),
	)
	return page(rec, body).WithID(IDMainPage)
}

// Reference builds a page showing reference photos [start, start+2)
func Reference(rec *record.Record, start int) *layout.Node {
	var cells []*layout.Node
	for i := start; i < start+2 && i < len(rec.ReferencePhotos); i++ {
		if i < 0 {
			continue
		}
		cells = append(cells, referenceCell(rec.ReferencePhotos[i]).WithID(ReferenceID(i)))
	}
	grid := layout.Box(bodyStyle.Merge(style.Style{Height: bodyH}), cells...).WithID(IDReferenceGrid)
	return page(rec, grid).WithID(IDReferencePage)
}

func page(rec *record.Record, body *layout.Node) *layout.Node {
	return layout.Box(pageStyle.Merge(style.Style{Width: layout.PageWidth, Height: layout.PageHeight}),
		header(rec),
		layout.Box(ruleStyle.Merge(style.Style{Height: ruleH})),
		body,
	)
}

func header(rec *record.Record) *layout.Node {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = UntitledTitle
	}
	var ident *layout.Node
	if id := strings.TrimSpace(rec.Identifier); id != "" {
		ident = layout.Text(id, idStyle).WithID(IDIdentifier)
	}
	return layout.Box(headerStyle.Merge(style.Style{Height: headerH}),
		layout.Picture(BrandSource, style.FitContain, 64, 64).WithID(IDBrand),
		layout.Box(style.Style{Gap: 4},
			layout.Text(title, titleStyle).WithID(IDTitle),
			ident,
		),
		layout.Box(style.Style{Width: 180, Gap: 4},
			layout.Text("DUE DATE", labelStyle.Merge(style.Style{TextAlign: style.TextAlignRight})),
			layout.Text(rec.DueDate.Display(), dueStyle).WithID(IDDueDate),
		),
	).WithID(IDHeader)
}

func primary(a *record.Attachment) *layout.Node {
	switch {
	case a.IsZero():
		return layout.Placeholder(NoPrimaryImage, columnW, bodyH).WithID(IDPrimary)
	case a.IsDocument():
		return layout.Placeholder(DocumentLabel+"\n"+a.DisplayName(), columnW, bodyH).WithID(IDPrimary)
	}
	return layout.Frame(columnW, bodyH,
		layout.Picture(a.URL, style.FitContain, columnW-2, bodyH-2),
	).WithID(IDPrimary)
}

func notes(text string) *layout.Node {
	return layout.Box(notesStyle.Merge(style.Style{Height: notesH}),
		layout.Text("NOTES", labelStyle),
		layout.Text(strings.TrimRight(text, "\n"), noteText).WithID(IDNotes),
	)
}

func swatchGrid(rec *record.Record) *layout.Node {
	cells := make([]*layout.Node, len(record.SwatchRoles))
	for i, role := range record.SwatchRoles {
		cells[i] = swatchCell(role, rec.Swatch(role))
	}
	row := func(a, b *layout.Node) *layout.Node {
		return layout.Box(style.Style{Direction: style.Row, Gap: swatchGap, Height: swatchRowH}, a, b)
	}
	return layout.Box(style.Style{Gap: swatchGap},
		row(cells[0], cells[1]),
		row(cells[2], cells[3]),
	).WithID(IDSwatchGrid)
}

func swatchCell(role record.SwatchRole, sw record.Swatch) *layout.Node {
	var content *layout.Node
	switch sw.Content() {
	case record.ContentImage:
		content = layout.Picture(sw.Image.URL, style.FitCover, swatchCellW-2, swatchFrame-2)
	case record.ContentText:
		content = layout.Text(sw.Text, swatchText)
	}
	return layout.Box(style.Style{Width: swatchCellW, Gap: 6},
		layout.Text(upper.String(role.Label()), labelStyle),
		layout.Frame(swatchCellW, swatchFrame, content).WithID(SwatchID(role)),
	)
}

func referenceCell(a record.Attachment) *layout.Node {
	var content *layout.Node
	if a.IsDocument() {
		content = layout.Placeholder(DocumentLabel+"\n"+a.DisplayName(), columnW-2, referenceH-2)
	} else {
		content = layout.Picture(a.URL, style.FitContain, columnW-2, referenceH-2)
	}
	return layout.Box(cellStyle.Merge(style.Style{Width: columnW, Height: referenceH}),
		content,
		layout.Box(overlay, layout.Text(ReferenceLabel, overlayText)),
	)
}
