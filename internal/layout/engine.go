package layout

import (
	"math"

	"github.com/gompdf/cutticket/internal/style"
)

// Measurer reports text metrics in design pixels
type Measurer interface {
	Width(s string, st style.Style) float64
	Wrap(s string, st style.Style, maxWidth float64) []string
}

// Placed is a positioned node. Style has inherited text properties resolved.
type Placed struct {
	Node     *Node
	Style    style.Style
	X, Y     float64
	W, H     float64
	Lines    []string
	TextTop  float64
	Children []*Placed
}

// Content returns the rectangle inside border and padding
func (b *Placed) Content() (x, y, w, h float64) {
	bw := b.Style.Border.Width
	p := b.Style.Padding
	return b.X + bw + p.Left, b.Y + bw + p.Top,
		math.Max(0, b.W-2*bw-p.Horizontal()), math.Max(0, b.H-2*bw-p.Vertical())
}

// Walk visits b and its descendants depth-first
func (b *Placed) Walk(fn func(*Placed)) {
	fn(b)
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// Find returns the first box whose node has the given id
func (b *Placed) Find(id string) *Placed {
	var found *Placed
	b.Walk(func(c *Placed) {
		if found == nil && c.Node.ID() == id {
			found = c
		}
	})
	return found
}

// shift moves b and every descendant by dx, dy
func (b *Placed) shift(dx, dy float64) {
	b.Walk(func(c *Placed) {
		c.X += dx
		c.Y += dy
		c.TextTop += dy
	})
}

// Engine computes box geometry for node trees
type Engine struct {
	measure Measurer
	root    style.Style
}

// NewEngine returns an engine measuring text with m
func NewEngine(m Measurer) *Engine {
	return &Engine{measure: m, root: style.Root()}
}

// Layout positions root at (x, y). A root without a fixed width gets width w.
func (e *Engine) Layout(root *Node, x, y, w float64) *Placed {
	return e.layout(root, e.root, x, y, w, 0)
}

// Compute lays out a page root at the origin
func Compute(root *Node, m Measurer) *Placed {
	st := root.Style()
	return NewEngine(m).Layout(root, 0, 0, st.Width)
}

// layout places n with its border box at (x, y). w is the width offered by the
// parent; h, when positive, is a stretched height that replaces a derived one.
func (e *Engine) layout(n *Node, parent style.Style, x, y, w, h float64) *Placed {
	st := n.Style().Inherit(parent)
	b := &Placed{Node: n, Style: st, X: x, Y: y, W: w}
	if st.Width > 0 {
		b.W = st.Width
	}
	fixedH := st.Height
	if fixedH == 0 && h > 0 {
		fixedH = h
	}
	b.H = fixedH

	cx, cy, cw, _ := b.Content()
	frame := 2*st.Border.Width + st.Padding.Vertical()
	var contentH float64

	switch n.Kind() {
	case KindText:
		b.Lines = e.measure.Wrap(n.Text(), st, cw)
		contentH = math.Ceil(float64(len(b.Lines)) * st.LineAdvance())
		b.TextTop = cy
	case KindImage:
		if fixedH == 0 {
			contentH = cw * 3 / 4
		}
	case KindBox:
		if st.Direction == style.Row {
			contentH = e.layoutRow(b, fixedH-frame)
		} else {
			contentH = e.layoutColumn(b, cx, cy, cw)
		}
	}

	if fixedH == 0 {
		b.H = contentH + frame
	}
	_, _, _, ch := b.Content()

	if free := ch - contentH; free > 0 && b.Style.Justify != style.JustifyStart && (n.Kind() == KindText || st.Direction == style.Column) {
		off := free
		if b.Style.Justify == style.JustifyCenter {
			off = free / 2
		}
		if n.Kind() == KindText {
			b.TextTop += off
		}
		for _, c := range b.Children {
			if c.Style.Position == style.Static {
				c.shift(0, off)
			}
		}
	}

	e.layoutOverlays(b)
	return b
}

// layoutColumn stacks in-flow children top to bottom and returns their height
func (e *Engine) layoutColumn(b *Placed, cx, cy, cw float64) float64 {
	y := cy
	placed := 0
	for _, child := range b.Node.children {
		if child.Style().Position != style.Static {
			continue
		}
		if placed > 0 {
			y += b.Style.Gap
		}
		w := e.crossWidth(child, b.Style, cw)
		x := cx
		if b.Style.Align == style.AlignCenter {
			x += (cw - w) / 2
		}
		cb := e.layout(child, b.Style, x, y, w, 0)
		b.Children = append(b.Children, cb)
		y += cb.H
		placed++
	}
	return y - cy
}

// crossWidth is the width a column child receives
func (e *Engine) crossWidth(child *Node, parent style.Style, cw float64) float64 {
	st := child.Style()
	if st.Width > 0 {
		return st.Width
	}
	if parent.Align != style.AlignCenter || child.Kind() != KindText {
		return cw
	}
	ts := st.Inherit(parent)
	var widest float64
	for _, line := range e.measure.Wrap(child.Text(), ts, cw) {
		widest = math.Max(widest, e.measure.Width(line, ts))
	}
	return math.Min(cw, math.Ceil(widest)+2*ts.Border.Width+ts.Padding.Horizontal())
}

// layoutRow places in-flow children left to right. Children without a fixed
// width share the remaining space equally. innerH is the definite content
// height or a non-positive value when the row height is derived.
func (e *Engine) layoutRow(b *Placed, innerH float64) float64 {
	cx, cy, cw, _ := b.Content()

	var flow []*Node
	fixed, auto := 0.0, 0
	for _, child := range b.Node.children {
		if child.Style().Position != style.Static {
			continue
		}
		flow = append(flow, child)
		if w := child.Style().Width; w > 0 {
			fixed += w
		} else {
			auto++
		}
	}
	if len(flow) == 0 {
		return 0
	}
	share := 0.0
	if auto > 0 {
		share = math.Max(0, (cw-fixed-b.Style.Gap*float64(len(flow)-1))/float64(auto))
	}
	widths := make([]float64, len(flow))
	used := b.Style.Gap * float64(len(flow)-1)
	for i, child := range flow {
		widths[i] = child.Style().Width
		if widths[i] == 0 {
			widths[i] = share
		}
		used += widths[i]
	}

	rowH := innerH
	if rowH <= 0 {
		for i, child := range flow {
			rowH = math.Max(rowH, e.layout(child, b.Style, 0, 0, widths[i], 0).H)
		}
	}

	x := cx
	switch b.Style.Justify {
	case style.JustifyCenter:
		x += math.Max(0, cw-used) / 2
	case style.JustifyEnd:
		x += math.Max(0, cw-used)
	}
	for i, child := range flow {
		stretch := 0.0
		if b.Style.Align == style.AlignStretch {
			stretch = rowH
		}
		cb := e.layout(child, b.Style, x, cy, widths[i], stretch)
		if b.Style.Align == style.AlignCenter {
			cb.shift(0, (rowH-cb.H)/2)
		}
		b.Children = append(b.Children, cb)
		x += widths[i] + b.Style.Gap
	}
	return rowH
}

// layoutOverlays pins out-of-flow children to the bottom of b's content box
func (e *Engine) layoutOverlays(b *Placed) {
	if b.Node.Kind() != KindBox {
		return
	}
	cx, cy, cw, ch := b.Content()
	for _, child := range b.Node.children {
		if child.Style().Position != style.OverlayBottom {
			continue
		}
		cb := e.layout(child, b.Style, cx, cy, cw, 0)
		cb.shift(0, ch-cb.H)
		b.Children = append(b.Children, cb)
	}
}
