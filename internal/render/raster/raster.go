// Package raster draws page trees in process with fogleman/gg.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"github.com/gompdf/cutticket/internal/layout"
	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/render"
	"github.com/gompdf/cutticket/internal/res"
	"github.com/gompdf/cutticket/internal/style"
	"github.com/gompdf/cutticket/internal/text"
)

// Rasterizer implements render.Rasterizer without external processes
type Rasterizer struct {
	loader  *res.Loader
	fonts   *text.Fonts
	density float64
	logger  *zap.Logger
}

var _ render.Rasterizer = (*Rasterizer)(nil)

// Option configures a Rasterizer
type Option func(*Rasterizer)

// WithDensity sets the pixel-density multiplier
func WithDensity(d float64) Option {
	return func(r *Rasterizer) {
		if d > 0 {
			r.density = d
		}
	}
}

// WithFonts replaces the shared font set
func WithFonts(f *text.Fonts) Option {
	return func(r *Rasterizer) {
		if f != nil {
			r.fonts = f
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Rasterizer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a rasterizer loading images through loader
func New(loader *res.Loader, opts ...Option) *Rasterizer {
	r := &Rasterizer{
		loader:  loader,
		fonts:   text.Default(),
		density: render.DefaultDensity,
		logger:  logging.Named("raster"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rasterize lays out node and paints it onto a white bitmap
func (r *Rasterizer) Rasterize(ctx context.Context, node *layout.Node) (image.Image, error) {
	w, h := render.Size(r.density)
	p := &painter{
		Rasterizer: r,
		ctx:        ctx,
		dc:         gg.NewContext(w, h),
		faces:      make(map[faceKey]font.Face),
	}
	p.dc.SetRGB(1, 1, 1)
	p.dc.Clear()

	root := layout.Compute(node, r.fonts)
	if err := p.paint(root); err != nil {
		return nil, err
	}
	r.logger.Debug("page rasterized", zap.String("node", node.ID()), zap.Int("width", w), zap.Int("height", h))
	return p.dc.Image(), nil
}

type faceKey struct {
	size float64
	bold bool
}

// painter holds the per-capture drawing state
type painter struct {
	*Rasterizer
	ctx   context.Context
	dc    *gg.Context
	faces map[faceKey]font.Face
}

func (p *painter) px(v float64) float64 { return v * p.density }

func (p *painter) paint(b *layout.Placed) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	p.drawBackground(b)
	switch b.Node.Kind() {
	case layout.KindImage:
		if err := p.drawImage(b); err != nil {
			return err
		}
	case layout.KindText:
		p.drawText(b)
	}
	for _, c := range b.Children {
		if err := p.paint(c); err != nil {
			return err
		}
	}
	p.drawBorder(b)
	return nil
}

func (p *painter) rect(x, y, w, h, radius float64) {
	if radius > 0 {
		p.dc.DrawRoundedRectangle(p.px(x), p.px(y), p.px(w), p.px(h), p.px(radius))
		return
	}
	p.dc.DrawRectangle(p.px(x), p.px(y), p.px(w), p.px(h))
}

func (p *painter) drawBackground(b *layout.Placed) {
	bg := b.Style.Background
	if bg.IsZero() || bg.A == 0 {
		return
	}
	p.dc.SetColor(bg.NRGBA())
	p.rect(b.X, b.Y, b.W, b.H, b.Style.Border.Radius)
	p.dc.Fill()
}

func (p *painter) drawBorder(b *layout.Placed) {
	br := b.Style.Border
	if br.Width <= 0 {
		return
	}
	p.dc.Push()
	defer p.dc.Pop()
	p.dc.SetColor(br.Color.NRGBA())
	p.dc.SetLineWidth(p.px(br.Width))
	if br.Dashed {
		p.dc.SetDash(p.px(4*br.Width), p.px(3*br.Width))
	}
	half := br.Width / 2
	p.rect(b.X+half, b.Y+half, b.W-br.Width, b.H-br.Width, br.Radius)
	p.dc.Stroke()
}

func (p *painter) face(st style.Style) font.Face {
	key := faceKey{size: p.px(st.FontSize), bold: st.FontWeight == style.WeightBold}
	f, ok := p.faces[key]
	if !ok {
		f = p.fonts.NewFace(key.size, st.FontWeight)
		p.faces[key] = f
	}
	return f
}

func (p *painter) drawText(b *layout.Placed) {
	if len(b.Lines) == 0 {
		return
	}
	st := b.Style
	cx, cy, cw, ch := b.Content()

	p.dc.Push()
	defer p.dc.Pop()
	p.dc.DrawRectangle(p.px(cx), p.px(cy), p.px(cw), p.px(ch))
	p.dc.Clip()
	// Pop keeps the mask, so the clip has to be dropped explicitly
	defer p.dc.ResetClip()
	p.dc.SetFontFace(p.face(st))
	p.dc.SetColor(st.Color.NRGBA())

	ascent := p.fonts.Ascent(st)
	advance := st.LineAdvance()
	for i, line := range b.Lines {
		if line == "" {
			continue
		}
		x := cx
		switch st.TextAlign {
		case style.TextAlignCenter:
			x += (cw - p.fonts.Width(line, st)) / 2
		case style.TextAlignRight:
			x += cw - p.fonts.Width(line, st)
		}
		y := b.TextTop + float64(i)*advance + ascent
		p.dc.DrawString(line, p.px(x), p.px(y))
	}
}

func (p *painter) drawImage(b *layout.Placed) error {
	cx, cy, cw, ch := b.Content()
	pw, ph := int(math.Round(p.px(cw))), int(math.Round(p.px(ch)))
	if pw <= 0 || ph <= 0 {
		return nil
	}

	r, err := p.loader.LoadImage(p.ctx, b.Node.Src())
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	img, err := res.DecodeImage(r, pw, ph)
	if err != nil {
		return err
	}

	fitted := Fit(img, pw, ph, b.Style.Fit)
	fb := fitted.Bounds()
	x := int(math.Round(p.px(cx))) + (pw-fb.Dx())/2
	y := int(math.Round(p.px(cy))) + (ph-fb.Dy())/2
	p.dc.DrawImage(fitted, x, y)
	return nil
}

// Fit scales img into a w by h box. Contain keeps the whole image and may
// leave margins; cover fills the box and crops the overflow around the center.
func Fit(img image.Image, w, h int, fit style.Fit) image.Image {
	ib := img.Bounds()
	if ib.Dx() == 0 || ib.Dy() == 0 {
		return imaging.New(w, h, color.Transparent)
	}
	if fit == style.FitCover {
		return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	}
	scale := math.Min(float64(w)/float64(ib.Dx()), float64(h)/float64(ib.Dy()))
	tw := max(1, int(math.Round(float64(ib.Dx())*scale)))
	th := max(1, int(math.Round(float64(ib.Dy())*scale)))
	if tw == ib.Dx() && th == ib.Dy() {
		return img
	}
	return imaging.Resize(img, tw, th, imaging.Lanczos)
}
