// Package browser captures page trees with a headless Chrome driven by go-rod.
package browser

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/layout"
	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/markup"
	"github.com/gompdf/cutticket/internal/render"
	"github.com/gompdf/cutticket/internal/res"
)

const blankDocument = "<!DOCTYPE html><html><body></body></html>"

// waitAssets resolves once fonts are ready and every image has settled, and
// returns the number of images that failed to decode.
const waitAssets = `() => document.fonts.ready.then(() => Promise.all(
	Array.from(document.images).map(img => img.complete ? null :
		new Promise(done => { img.onload = done; img.onerror = done; }))
)).then(() => Array.from(document.images).filter(img => img.naturalWidth === 0).length)`

// Config selects the browser to drive
type Config struct {
	// ControlURL connects to a running browser; empty launches one
	ControlURL string
	// Bin overrides the browser binary used when launching
	Bin string
	// SettleTimeout bounds the wait for images and fonts; zero means 30s
	SettleTimeout time.Duration
}

// Rasterizer renders nodes as HTML in one reused browser tab. The tab plays
// the role of the capture area and is reset to a blank document after each capture.
type Rasterizer struct {
	cfg     Config
	loader  *res.Loader
	density float64
	logger  *zap.Logger

	mu      sync.Mutex
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
}

var _ render.Rasterizer = (*Rasterizer)(nil)

// New returns an unstarted browser rasterizer
func New(loader *res.Loader, cfg Config, density float64, logger *zap.Logger) *Rasterizer {
	if density <= 0 {
		density = render.DefaultDensity
	}
	if logger == nil {
		logger = logging.Named("browser")
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 30 * time.Second
	}
	return &Rasterizer{cfg: cfg, loader: loader, density: density, logger: logger}
}

// Start connects to or launches the browser. Rasterize calls it on demand.
func (r *Rasterizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(ctx)
}

func (r *Rasterizer) startLocked(ctx context.Context) error {
	if r.page != nil {
		return nil
	}

	controlURL := r.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true).Leakless(false)
		if r.cfg.Bin != "" {
			l = l.Bin(r.cfg.Bin)
		}
		u, err := l.Context(ctx).Launch()
		if err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		r.launch = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		r.killLocked()
		return fmt.Errorf("connect to browser: %w", err)
	}
	p, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		r.killLocked()
		return fmt.Errorf("create page: %w", err)
	}
	r.browser, r.page = b, p
	r.logger.Info("browser capture ready", zap.Bool("launched", r.launch != nil))
	return nil
}

// Rasterize loads node as a standalone document and screenshots the design box
func (r *Rasterizer) Rasterize(ctx context.Context, node *layout.Node) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.startLocked(ctx); err != nil {
		return nil, err
	}

	doc, err := markup.String(ctx, node, markup.Options{
		Title:      node.ID(),
		Resolve:    InlineResolver(r.loader),
		EmbedFonts: true,
	})
	if err != nil {
		return nil, err
	}

	p := r.page.Context(ctx)
	defer func() {
		if err := r.page.SetDocumentContent(blankDocument); err != nil {
			r.logger.Warn("reset capture page", zap.Error(err))
		}
	}()

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             render.DesignWidth,
		Height:            render.DesignHeight,
		DeviceScaleFactor: r.density,
		Mobile:            false,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := p.SetDocumentContent(doc); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	settled, err := p.Timeout(r.cfg.SettleTimeout).Eval(waitAssets)
	if err != nil {
		return nil, fmt.Errorf("wait for assets: %w", err)
	}
	if broken := settled.Value.Int(); broken > 0 {
		return nil, fmt.Errorf("%d image(s) failed to decode", broken)
	}

	data, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X: 0, Y: 0,
			Width:  render.DesignWidth,
			Height: render.DesignHeight,
			Scale:  1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

// Close shuts the page and browser down and stops a launched process
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	if r.page != nil {
		errs = append(errs, r.page.Close())
		r.page = nil
	}
	if r.browser != nil {
		errs = append(errs, r.browser.Close())
		r.browser = nil
	}
	r.killLocked()
	return errors.Join(errs...)
}

func (r *Rasterizer) killLocked() {
	if r.launch != nil {
		r.launch.Kill()
		r.launch.Cleanup()
		r.launch = nil
	}
}

// InlineResolver turns image sources into data URLs so the document has no
// external references
func InlineResolver(loader *res.Loader) markup.Resolver {
	return func(ctx context.Context, src string) (string, error) {
		r, err := loader.LoadImage(ctx, src)
		if err != nil {
			return "", err
		}
		mt := r.MimeType
		if mt == "" || mt == "application/octet-stream" {
			mt = "image/png"
		}
		return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(r.Data), nil
	}
}

// Available reports whether a local browser binary can be found
func Available() bool {
	_, ok := launcher.LookPath()
	return ok
}
