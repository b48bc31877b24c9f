// Package pdf assembles captured page bitmaps into a PDF with fpdf.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/logging"
)

// PageSize is a physical page size in points
type PageSize struct {
	Name          string
	Width, Height float64
}

// Standard page sizes in points (1/72 inch)
var (
	A4     = PageSize{Name: "A4", Width: 595.28, Height: 841.89}
	Letter = PageSize{Name: "Letter", Width: 612, Height: 792}
	Legal  = PageSize{Name: "Legal", Width: 612, Height: 1008}
	A3     = PageSize{Name: "A3", Width: 841.89, Height: 1190.55}
	A5     = PageSize{Name: "A5", Width: 419.53, Height: 595.28}
)

// ParsePageSize looks a size up by name, case-insensitively
func ParsePageSize(name string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return A4, nil
	case "letter":
		return Letter, nil
	case "legal":
		return Legal, nil
	case "a3":
		return A3, nil
	case "a5":
		return A5, nil
	}
	return PageSize{}, fmt.Errorf("unsupported page size %q", name)
}

// Metadata is written to the document information dictionary
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
	// CreationDate fixes the creation and modification dates; zero means now
	CreationDate time.Time
}

// Document is a multi-page PDF where every page is one full-page bitmap
type Document struct {
	pdf    *fpdf.Fpdf
	size   PageSize
	pages  int
	logger *zap.Logger
}

// New creates an empty portrait document
func New(size PageSize, meta Metadata, logger *zap.Logger) *Document {
	if size.Width <= 0 || size.Height <= 0 {
		size = A4
	}
	if logger == nil {
		logger = logging.Named("pdf")
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetKeywords(meta.Keywords, true)
	pdf.SetCreator(meta.Creator, true)
	pdf.SetProducer(meta.Producer, true)
	if !meta.CreationDate.IsZero() {
		pdf.SetCreationDate(meta.CreationDate)
		pdf.SetModificationDate(meta.CreationDate)
	}

	return &Document{pdf: pdf, size: size, logger: logger}
}

// Size returns the physical page size
func (d *Document) Size() PageSize { return d.size }

// PageCount returns the number of pages added so far
func (d *Document) PageCount() int { return d.pages }

// AddBitmap appends a page showing img scaled to the page. Bitmaps with the
// page's aspect ratio fill it exactly; others are centered.
func (d *Document) AddBitmap(img image.Image) error {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return fmt.Errorf("page %d: empty bitmap", d.pages+1)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("page %d: encode bitmap: %w", d.pages+1, err)
	}

	name := "page-" + strconv.Itoa(d.pages+1)
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)

	x, y, w, h := d.placement(b.Dx(), b.Dy())
	d.pdf.AddPage()
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if d.pdf.Err() {
		return fmt.Errorf("page %d: %w", d.pages+1, d.pdf.Error())
	}
	d.pages++
	d.logger.Debug("page added", zap.Int("page", d.pages), zap.Int("px_width", b.Dx()), zap.Int("px_height", b.Dy()))
	return nil
}

// placement returns the page rectangle for a bitmap of pw by ph pixels.
// The scale depends only on the bitmap and page sizes.
func (d *Document) placement(pw, ph int) (x, y, w, h float64) {
	scale := math.Min(d.size.Width/float64(pw), d.size.Height/float64(ph))
	w, h = float64(pw)*scale, float64(ph)*scale
	if math.Abs(w-d.size.Width) < 0.5 && math.Abs(h-d.size.Height) < 0.5 {
		return 0, 0, d.size.Width, d.size.Height
	}
	return (d.size.Width - w) / 2, (d.size.Height - h) / 2, w, h
}

// Output writes the finished document to w
func (d *Document) Output(w io.Writer) error {
	if d.pages == 0 {
		return fmt.Errorf("document has no pages")
	}
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
