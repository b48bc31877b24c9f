// Package cutticket exports garment production records as printable
// multi-page cut-ticket PDFs.
package cutticket

import (
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/render/browser"
	"github.com/gompdf/cutticket/internal/render/pdf"
	"github.com/gompdf/cutticket/pkg/api"
)

type Exporter = api.Exporter
type Options = api.Options
type Option = api.Option
type Result = api.Result
type Backend = api.Backend
type BrowserConfig = browser.Config
type PageSize = pdf.PageSize

type Record = record.Record
type Attachment = record.Attachment
type Swatch = record.Swatch
type Swatches = record.Swatches
type Status = record.Status
type Date = record.Date

func New(opts ...Option) (*Exporter, error)              { return api.New(opts...) }
func NewWithOptions(options Options) (*Exporter, error) { return api.NewWithOptions(options) }
func DefaultOptions() Options                           { return api.DefaultOptions() }

var (
	WithPageSize     = api.WithPageSize
	WithDensity      = api.WithDensity
	WithBackend      = api.WithBackend
	WithBrowser      = api.WithBrowser
	WithResourcePath = api.WithResourcePath
	WithBaseDir      = api.WithBaseDir
	WithTitle        = api.WithTitle
	WithAuthor       = api.WithAuthor
	WithSubject      = api.WithSubject
	WithCreationDate = api.WithCreationDate
	WithLogger       = api.WithLogger

	LoadRecord = record.LoadFile
	Filename   = record.Filename
	NewDate    = record.NewDate
)

const (
	BackendRaster  = api.BackendRaster
	BackendBrowser = api.BackendBrowser

	StatusPending    = record.StatusPending
	StatusInProgress = record.StatusInProgress
	StatusReview     = record.StatusReview
	StatusCompleted  = record.StatusCompleted
)

var (
	PageSizeA4     = pdf.A4
	PageSizeLetter = pdf.Letter
	PageSizeLegal  = pdf.Legal
	PageSizeA3     = pdf.A3
	PageSizeA5     = pdf.A5
)
