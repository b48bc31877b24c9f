package api

import (
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/render"
	"github.com/gompdf/cutticket/internal/render/browser"
	"github.com/gompdf/cutticket/internal/render/pdf"
)

// Backend selects how page nodes are turned into bitmaps
type Backend string

const (
	// BackendRaster paints nodes in-process with the Go font set
	BackendRaster Backend = "raster"
	// BackendBrowser renders nodes as HTML in a headless browser tab
	BackendBrowser Backend = "browser"
)

// Options represents configuration options for the cut-ticket exporter
type Options struct {
	// Physical page size of the output document
	PageSize pdf.PageSize
	// Pixels per design unit in the captured bitmaps
	Density float64

	Backend Backend
	Browser browser.Config

	// Directories searched for relative attachment paths
	ResourcePaths []string
	// Base directory for relative attachment paths
	BaseDir string

	// Document metadata. Title defaults to the record title.
	Title   string
	Author  string
	Subject string
	Creator string
	// CreationDate fixes the document dates for reproducible output
	CreationDate time.Time

	Logger *zap.Logger
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		PageSize: pdf.A4,
		Density:  render.DefaultDensity,
		Backend:  BackendRaster,
		Creator:  "cutticket",
		Logger:   logging.Named("export"),
	}
}

// WithPageSize sets the physical page size
func WithPageSize(size pdf.PageSize) Option {
	return func(o *Options) {
		o.PageSize = size
	}
}

// WithDensity sets the capture density
func WithDensity(density float64) Option {
	return func(o *Options) {
		if density > 0 {
			o.Density = density
		}
	}
}

// WithBackend selects the rasterization backend
func WithBackend(b Backend) Option {
	return func(o *Options) {
		o.Backend = b
	}
}

// WithBrowser selects the browser backend with the given configuration
func WithBrowser(cfg browser.Config) Option {
	return func(o *Options) {
		o.Backend = BackendBrowser
		o.Browser = cfg
	}
}

// WithResourcePath adds a directory to search for attachments
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithBaseDir resolves relative attachment paths against dir
func WithBaseDir(dir string) Option {
	return func(o *Options) {
		o.BaseDir = dir
	}
}

// WithTitle overrides the document title
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithSubject sets the document subject
func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
	}
}

// WithCreationDate fixes the document creation date
func WithCreationDate(t time.Time) Option {
	return func(o *Options) {
		o.CreationDate = t
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
