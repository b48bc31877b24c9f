// Package style describes the inline visual properties carried by layout nodes.
package style

// Direction is the main axis along which a box stacks its children
type Direction int

const (
	Column Direction = iota
	Row
)

// Justify positions children along the main axis
type Justify int

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
)

// AlignItems positions children along the cross axis
type AlignItems int

const (
	AlignStretch AlignItems = iota
	AlignCenter
)

// TextAlign is the horizontal alignment of text lines
type TextAlign int

const (
	TextAlignInherit TextAlign = iota
	TextAlignLeft
	TextAlignCenter
	TextAlignRight
)

// Weight is a font weight
type Weight int

const (
	WeightInherit Weight = iota
	WeightRegular
	WeightBold
)

// Fit controls how an image fills its box
type Fit int

const (
	FitContain Fit = iota
	FitCover
)

// Position selects normal flow or an overlay pinned to the parent's bottom edge
type Position int

const (
	Static Position = iota
	OverlayBottom
)

// Edges holds per-side lengths in pixels
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Uniform returns equal edges on every side
func Uniform(v float64) Edges {
	return Edges{v, v, v, v}
}

// Horizontal returns Left+Right
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns Top+Bottom
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Border describes a box outline
type Border struct {
	Width  float64
	Color  Color
	Dashed bool
	Radius float64
}

// Style is the full set of properties of a node. Lengths are CSS pixels at
// the design resolution; a zero Width or Height means the size is derived.
type Style struct {
	Width   float64
	Height  float64
	Padding Edges
	Gap     float64

	Direction Direction
	Justify   Justify
	Align     AlignItems
	Position  Position

	Border     Border
	Background Color

	// Text properties inherit from the parent when unset.
	Color      Color
	FontSize   float64
	FontWeight Weight
	LineHeight float64
	TextAlign  TextAlign

	Fit Fit
}

// Default text properties applied at the root of every page.
const (
	DefaultFontSize   = 14
	DefaultLineHeight = 1.35
)

// DefaultColor is the root text color.
var DefaultColor = Color{R: 0x1f, G: 0x1f, B: 0x1f, A: 0xff}

// Root returns the text defaults every page starts from
func Root() Style {
	return Style{
		Color:      DefaultColor,
		FontSize:   DefaultFontSize,
		FontWeight: WeightRegular,
		LineHeight: DefaultLineHeight,
		TextAlign:  TextAlignLeft,
	}
}

// Inherit fills unset text properties of s from parent
func (s Style) Inherit(parent Style) Style {
	if s.Color.IsZero() {
		s.Color = parent.Color
	}
	if s.FontSize == 0 {
		s.FontSize = parent.FontSize
	}
	if s.FontWeight == WeightInherit {
		s.FontWeight = parent.FontWeight
	}
	if s.LineHeight == 0 {
		s.LineHeight = parent.LineHeight
	}
	if s.TextAlign == TextAlignInherit {
		s.TextAlign = parent.TextAlign
	}
	return s
}

// Merge overlays every non-zero property of o onto s
func (s Style) Merge(o Style) Style {
	if o.Width != 0 {
		s.Width = o.Width
	}
	if o.Height != 0 {
		s.Height = o.Height
	}
	if o.Padding != (Edges{}) {
		s.Padding = o.Padding
	}
	if o.Gap != 0 {
		s.Gap = o.Gap
	}
	if o.Direction != Column {
		s.Direction = o.Direction
	}
	if o.Justify != JustifyStart {
		s.Justify = o.Justify
	}
	if o.Align != AlignStretch {
		s.Align = o.Align
	}
	if o.Position != Static {
		s.Position = o.Position
	}
	if o.Border != (Border{}) {
		s.Border = o.Border
	}
	if !o.Background.IsZero() {
		s.Background = o.Background
	}
	if o.Fit != FitContain {
		s.Fit = o.Fit
	}
	if !o.Color.IsZero() {
		s.Color = o.Color
	}
	if o.FontSize != 0 {
		s.FontSize = o.FontSize
	}
	if o.FontWeight != WeightInherit {
		s.FontWeight = o.FontWeight
	}
	if o.LineHeight != 0 {
		s.LineHeight = o.LineHeight
	}
	if o.TextAlign != TextAlignInherit {
		s.TextAlign = o.TextAlign
	}
	return s
}

// LineAdvance returns the vertical distance between text baselines
func (s Style) LineAdvance() float64 {
	lh := s.LineHeight
	if lh == 0 {
		lh = DefaultLineHeight
	}
	fs := s.FontSize
	if fs == 0 {
		fs = DefaultFontSize
	}
	return fs * lh
}
