// Package api exports production records as multi-page cut-ticket PDFs.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/pagination"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/render"
	"github.com/gompdf/cutticket/internal/render/browser"
	"github.com/gompdf/cutticket/internal/render/pdf"
	"github.com/gompdf/cutticket/internal/render/raster"
	"github.com/gompdf/cutticket/internal/res"
)

// Result is a finished export
type Result struct {
	Filename  string
	PageCount int
	Data      []byte
}

// Exporter is the main API for exporting records. It owns one capture
// surface, so concurrent exports through the same exporter take turns.
type Exporter struct {
	options    Options
	loader     *res.Loader
	surface    *render.Surface
	rasterizer render.Rasterizer
	closer     io.Closer
}

// New creates an exporter with default options modified by opts
func New(opts ...Option) (*Exporter, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return NewWithOptions(options)
}

// NewWithOptions creates an exporter with the specified options
func NewWithOptions(options Options) (*Exporter, error) {
	if options.Logger == nil {
		options.Logger = logging.Named("export")
	}
	if options.Density <= 0 {
		options.Density = render.DefaultDensity
	}

	loader := res.NewLoader(options.BaseDir)
	loader.SetLogger(options.Logger.Named("res"))
	for _, path := range options.ResourcePaths {
		loader.AddSearchPath(path)
	}

	e := &Exporter{
		options: options,
		loader:  loader,
		surface: render.NewSurface(),
	}

	switch options.Backend {
	case BackendRaster, "":
		e.rasterizer = raster.New(loader,
			raster.WithDensity(options.Density),
			raster.WithLogger(options.Logger.Named("raster")))
	case BackendBrowser:
		b := browser.New(loader, options.Browser, options.Density, options.Logger.Named("browser"))
		e.rasterizer = b
		e.closer = b
	default:
		return nil, fmt.Errorf("unknown backend %q", options.Backend)
	}
	return e, nil
}

// Loader returns the resource loader used for attachments
func (e *Exporter) Loader() *res.Loader {
	return e.loader
}

// Close releases the rasterization backend
func (e *Exporter) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// Export renders rec into a PDF held in memory. On error no data is returned
// and the capture surface is left empty.
func (e *Exporter) Export(ctx context.Context, rec *record.Record) (*Result, error) {
	if rec == nil {
		return nil, fmt.Errorf("export: %w: nil record", record.ErrInvalid)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("export %q: %w", rec.Title, err)
	}

	logger := e.options.Logger.With(zap.String("title", rec.Title), zap.String("id", rec.ID))
	start := time.Now()

	doc := pdf.New(e.options.PageSize, e.metadata(rec), logger.Named("pdf"))
	engine := pagination.NewEngine(e.surface, e.rasterizer, logger)
	if err := engine.Run(ctx, rec, doc); err != nil {
		logger.Warn("export failed", zap.Error(err))
		return nil, fmt.Errorf("export %q: %w", rec.Title, err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("export %q: %w", rec.Title, err)
	}

	result := &Result{
		Filename:  rec.Filename(),
		PageCount: doc.PageCount(),
		Data:      buf.Bytes(),
	}
	logger.Info("export complete",
		zap.String("filename", result.Filename),
		zap.Int("pages", result.PageCount),
		zap.Int("bytes", len(result.Data)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// ExportTo renders rec and writes the PDF to w. Nothing is written on failure.
func (e *Exporter) ExportTo(ctx context.Context, rec *record.Record, w io.Writer) (*Result, error) {
	result, err := e.Export(ctx, rec)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(result.Data); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return result, nil
}

// ExportToFile renders rec into dir under its derived filename and returns
// the written path. The file appears only once the export has succeeded.
func (e *Exporter) ExportToFile(ctx context.Context, rec *record.Record, dir string) (string, *Result, error) {
	result, err := e.Export(ctx, rec)
	if err != nil {
		return "", nil, err
	}
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, ".cutticket-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, werr := tmp.Write(result.Data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return "", nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	target := filepath.Join(dir, result.Filename)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", nil, fmt.Errorf("failed to move PDF into place: %w", err)
	}
	return target, result, nil
}

func (e *Exporter) metadata(rec *record.Record) pdf.Metadata {
	title := e.options.Title
	if title == "" {
		title = rec.Title
	}
	subject := e.options.Subject
	if subject == "" {
		subject = "Cut ticket"
		if rec.Identifier != "" {
			subject += " " + rec.Identifier
		}
	}
	return pdf.Metadata{
		Title:        title,
		Author:       e.options.Author,
		Subject:      subject,
		Keywords:     "cut ticket",
		Creator:      e.options.Creator,
		Producer:     "cutticket",
		CreationDate: e.options.CreationDate,
	}
}
