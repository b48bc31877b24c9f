package layout

import "github.com/gompdf/cutticket/internal/style"

// Palette used by the primitives.
var (
	FrameBorder      = style.RGB(0xd0, 0xd0, 0xd0)
	FrameBackground  = style.RGB(0xfa, 0xfa, 0xfa)
	PlaceholderColor = style.RGB(0x8a, 0x8a, 0x8a)
	PlaceholderEdge  = style.RGB(0xb5, 0xb5, 0xb5)
)

// Frame returns a fixed-size bordered box that centers fallback, if any
func Frame(w, h float64, fallback *Node) *Node {
	return Box(style.Style{
		Width:      w,
		Height:     h,
		Justify:    style.JustifyCenter,
		Align:      style.AlignCenter,
		Border:     style.Border{Width: 1, Color: FrameBorder},
		Background: FrameBackground,
	}, fallback)
}

// Picture returns an image node of exactly w by h pixels
func Picture(src string, fit style.Fit, w, h float64) *Node {
	return Image(src, style.Style{Width: w, Height: h, Fit: fit})
}

// Placeholder returns muted centered text inside a dashed frame
func Placeholder(text string, w, h float64) *Node {
	return Box(style.Style{
		Width:   w,
		Height:  h,
		Padding: style.Uniform(8),
		Justify: style.JustifyCenter,
		Align:   style.AlignCenter,
		Border:  style.Border{Width: 1, Color: PlaceholderEdge, Dashed: true},
	}, Text(text, style.Style{
		Color:      PlaceholderColor,
		FontSize:   12,
		FontWeight: style.WeightBold,
		TextAlign:  style.TextAlignCenter,
	}))
}

// Design box of one page, A4 at 96 dpi.
const (
	PageWidth  = 794
	PageHeight = 1123
)
