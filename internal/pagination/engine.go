package pagination

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/render"
)

// Sink receives captured pages in order
type Sink interface {
	AddBitmap(img image.Image) error
}

// Engine captures planned pages one at a time through a shared surface
type Engine struct {
	surface    *render.Surface
	rasterizer render.Rasterizer
	logger     *zap.Logger
}

// NewEngine returns an engine capturing on surface with r
func NewEngine(surface *render.Surface, r render.Rasterizer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = logging.Named("pagination")
	}
	return &Engine{surface: surface, rasterizer: r, logger: logger}
}

// Run builds, captures and appends every page of rec to sink in plan order.
// Each page is discarded before the next one is built. The first failure
// stops the run and is returned.
func (e *Engine) Run(ctx context.Context, rec *record.Record, sink Sink) error {
	plan := Plan(rec)
	e.logger.Debug("pagination planned", zap.Int("pages", len(plan)), zap.Int("references", len(rec.ReferencePhotos)))

	for i, spec := range plan {
		start := time.Now()
		node := spec.Build(rec)
		img, err := render.Capture(ctx, e.surface, e.rasterizer, node, e.logger)
		if err != nil {
			return fmt.Errorf("page %d (%s): %w", i+1, spec, err)
		}
		if err := sink.AddBitmap(img); err != nil {
			return fmt.Errorf("page %d (%s): %w", i+1, spec, err)
		}
		e.logger.Debug("page captured",
			zap.Int("page", i+1),
			zap.Stringer("layout", spec),
			zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}
