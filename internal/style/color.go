package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a non-premultiplied RGBA color. The zero value means unset.
type Color struct {
	R, G, B, A uint8
}

// Transparent is fully transparent white, distinct from the unset zero value.
var Transparent = Color{R: 0xff, G: 0xff, B: 0xff}

// RGB returns an opaque color
func RGB(r, g, b uint8) Color {
	return Color{r, g, b, 0xff}
}

// IsZero reports whether the color is unset
func (c Color) IsZero() bool { return c == Color{} }

// NRGBA converts to the image/color representation
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// WithAlpha returns c with opacity a in [0,1]
func (c Color) WithAlpha(a float64) Color {
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	c.A = uint8(a*255 + 0.5)
	return c
}

// CSS returns the color as a CSS value
func (c Color) CSS() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	if c.A == 0 {
		return "transparent"
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B,
		strconv.FormatFloat(float64(c.A)/255, 'f', 2, 64))
}

var namedColors = map[string]Color{
	"black":       RGB(0, 0, 0),
	"white":       RGB(0xff, 0xff, 0xff),
	"red":         RGB(0xff, 0, 0),
	"gray":        RGB(0x80, 0x80, 0x80),
	"grey":        RGB(0x80, 0x80, 0x80),
	"transparent": Transparent,
}

// ParseColor parses #RGB, #RRGGBB, #RRGGBBAA, rgb(), rgba() and a few names
func ParseColor(value string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		if c, ok := parseHexColor(v); ok {
			return c, nil
		}
		return Color{}, fmt.Errorf("invalid hex color %q", value)
	}
	if inner, ok := cutFunc(v, "rgba"); ok {
		return parseRGBArgs(inner, true, value)
	}
	if inner, ok := cutFunc(v, "rgb"); ok {
		return parseRGBArgs(inner, false, value)
	}
	return Color{}, fmt.Errorf("unsupported color %q", value)
}

// MustColor is ParseColor for literals known to be valid
func MustColor(value string) Color {
	c, err := ParseColor(value)
	if err != nil {
		panic(err)
	}
	return c
}

func cutFunc(v, name string) (string, bool) {
	if !strings.HasPrefix(v, name+"(") || !strings.HasSuffix(v, ")") {
		return "", false
	}
	return v[len(name)+1 : len(v)-1], true
}

func parseRGBArgs(inner string, alpha bool, orig string) (Color, error) {
	parts := strings.Split(inner, ",")
	if (alpha && len(parts) != 4) || (!alpha && len(parts) != 3) {
		return Color{}, fmt.Errorf("invalid color %q", orig)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", orig, err)
		}
		ch[i] = uint8(n)
	}
	c := RGB(ch[0], ch[1], ch[2])
	if alpha {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", orig, err)
		}
		c = c.WithAlpha(a)
	}
	return c, nil
}

// parseHexColor parses #RRGGBBAA, #RRGGBB or #RGB
func parseHexColor(s string) (Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return Color{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
}
