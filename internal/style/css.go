package style

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Declaration is a single property: value pair of an inline style
type Declaration struct {
	Property string
	Value    string
}

func (d Declaration) String() string {
	return d.Property + ":" + d.Value
}

// ParseDeclarations splits an inline style string into declarations.
// Comments are dropped and !important is ignored.
func ParseDeclarations(inline string) []Declaration {
	parts := strings.Split(removeComments(inline), ";")
	result := make([]Declaration, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		property, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		result = append(result, Declaration{
			Property: strings.ToLower(strings.TrimSpace(property)),
			Value:    value,
		})
	}
	return result
}

// removeComments removes /* */ comments
func removeComments(content string) string {
	var b strings.Builder
	for i := 0; i < len(content); {
		if i+1 < len(content) && content[i] == '/' && content[i+1] == '*' {
			end := strings.Index(content[i+2:], "*/")
			if end == -1 {
				break
			}
			i += end + 4
			continue
		}
		b.WriteByte(content[i])
		i++
	}
	return b.String()
}

// Parse builds a Style from an inline CSS string
func Parse(inline string) (Style, error) {
	var s Style
	for _, d := range ParseDeclarations(inline) {
		if err := s.apply(d); err != nil {
			return Style{}, fmt.Errorf("%s: %w", d.Property, err)
		}
	}
	return s, nil
}

// MustParse is Parse for package-level style literals
func MustParse(inline string) Style {
	s, err := Parse(inline)
	if err != nil {
		panic(fmt.Sprintf("style %q: %v", inline, err))
	}
	return s
}

func (s *Style) apply(d Declaration) error {
	v := strings.ToLower(d.Value)
	var err error
	switch d.Property {
	case "width":
		s.Width, err = parseLength(v)
	case "height":
		s.Height, err = parseLength(v)
	case "padding":
		s.Padding, err = parseEdges(v)
	case "gap":
		s.Gap, err = parseLength(v)
	case "display", "box-sizing", "flex-shrink", "white-space", "overflow", "overflow-wrap":
		// every box is a non-shrinking border-box flex container
	case "flex-direction":
		switch v {
		case "row":
			s.Direction = Row
		case "column":
			s.Direction = Column
		default:
			err = errBadKeyword(v)
		}
	case "justify-content":
		switch v {
		case "flex-start", "start":
			s.Justify = JustifyStart
		case "center":
			s.Justify = JustifyCenter
		case "flex-end", "end":
			s.Justify = JustifyEnd
		default:
			err = errBadKeyword(v)
		}
	case "align-items":
		switch v {
		case "stretch":
			s.Align = AlignStretch
		case "center":
			s.Align = AlignCenter
		default:
			err = errBadKeyword(v)
		}
	case "position":
		switch v {
		case "static", "relative":
			s.Position = Static
		case "absolute":
			s.Position = OverlayBottom
		default:
			err = errBadKeyword(v)
		}
	case "bottom", "left", "right":
		// overlays are always pinned to the bottom edge
	case "border":
		s.Border, err = parseBorder(v, s.Border.Radius)
	case "border-radius":
		s.Border.Radius, err = parseLength(v)
	case "background", "background-color":
		s.Background, err = ParseColor(v)
	case "color":
		s.Color, err = ParseColor(v)
	case "font-size":
		s.FontSize, err = parseLength(v)
	case "font-weight":
		switch v {
		case "bold", "600", "700", "800", "900":
			s.FontWeight = WeightBold
		case "normal", "400":
			s.FontWeight = WeightRegular
		default:
			err = errBadKeyword(v)
		}
	case "line-height":
		s.LineHeight, err = strconv.ParseFloat(v, 64)
	case "text-align":
		switch v {
		case "left", "start":
			s.TextAlign = TextAlignLeft
		case "center":
			s.TextAlign = TextAlignCenter
		case "right", "end":
			s.TextAlign = TextAlignRight
		default:
			err = errBadKeyword(v)
		}
	case "object-fit":
		switch v {
		case "contain":
			s.Fit = FitContain
		case "cover":
			s.Fit = FitCover
		default:
			err = errBadKeyword(v)
		}
	default:
		err = fmt.Errorf("unsupported property")
	}
	return err
}

func errBadKeyword(v string) error {
	return fmt.Errorf("unsupported value %q", v)
}

func parseLength(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "0" || v == "auto" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q", v)
	}
	return f, nil
}

// parseEdges expands the 1-4 value box shorthand
func parseEdges(v string) (Edges, error) {
	fields := strings.Fields(v)
	vals := make([]float64, len(fields))
	for i, f := range fields {
		n, err := parseLength(f)
		if err != nil {
			return Edges{}, err
		}
		vals[i] = n
	}
	switch len(vals) {
	case 1:
		return Uniform(vals[0]), nil
	case 2:
		return Edges{vals[0], vals[1], vals[0], vals[1]}, nil
	case 3:
		return Edges{vals[0], vals[1], vals[2], vals[1]}, nil
	case 4:
		return Edges{vals[0], vals[1], vals[2], vals[3]}, nil
	}
	return Edges{}, fmt.Errorf("invalid box shorthand %q", v)
}

func parseBorder(v string, radius float64) (Border, error) {
	b := Border{Radius: radius}
	if v == "none" || v == "0" {
		return b, nil
	}
	for _, f := range strings.Fields(v) {
		switch f {
		case "solid":
		case "dashed":
			b.Dashed = true
		default:
			if n, err := parseLength(f); err == nil {
				b.Width = n
				continue
			}
			c, err := ParseColor(f)
			if err != nil {
				return Border{}, err
			}
			b.Color = c
		}
	}
	if b.Width > 0 && b.Color.IsZero() {
		b.Color = RGB(0, 0, 0)
	}
	return b, nil
}

// Declarations returns the style as inline CSS declarations, sorted by property
func (s Style) Declarations() []Declaration {
	var out []Declaration
	add := func(p, v string) { out = append(out, Declaration{p, v}) }

	add("display", "flex")
	add("box-sizing", "border-box")
	if s.Direction == Row {
		add("flex-direction", "row")
	} else {
		add("flex-direction", "column")
	}
	if s.Width > 0 {
		add("width", px(s.Width))
		add("flex-shrink", "0")
	}
	if s.Height > 0 {
		add("height", px(s.Height))
	}
	if s.Padding != (Edges{}) {
		p := s.Padding
		add("padding", strings.Join([]string{px(p.Top), px(p.Right), px(p.Bottom), px(p.Left)}, " "))
	}
	if s.Gap > 0 {
		add("gap", px(s.Gap))
	}
	switch s.Justify {
	case JustifyCenter:
		add("justify-content", "center")
	case JustifyEnd:
		add("justify-content", "flex-end")
	}
	if s.Align == AlignCenter {
		add("align-items", "center")
	}
	if s.Position == OverlayBottom {
		add("position", "absolute")
		add("left", "0")
		add("right", "0")
		add("bottom", "0")
	} else {
		add("position", "relative")
	}
	if s.Border.Width > 0 {
		kind := "solid"
		if s.Border.Dashed {
			kind = "dashed"
		}
		add("border", px(s.Border.Width)+" "+kind+" "+s.Border.Color.CSS())
	}
	if s.Border.Radius > 0 {
		add("border-radius", px(s.Border.Radius))
	}
	if !s.Background.IsZero() {
		add("background-color", s.Background.CSS())
	}
	if !s.Color.IsZero() {
		add("color", s.Color.CSS())
	}
	if s.FontSize > 0 {
		add("font-size", px(s.FontSize))
	}
	switch s.FontWeight {
	case WeightBold:
		add("font-weight", "700")
	case WeightRegular:
		add("font-weight", "400")
	}
	if s.LineHeight > 0 {
		add("line-height", strconv.FormatFloat(s.LineHeight, 'f', -1, 64))
	}
	switch s.TextAlign {
	case TextAlignLeft:
		add("text-align", "left")
	case TextAlignCenter:
		add("text-align", "center")
	case TextAlignRight:
		add("text-align", "right")
	}
	if s.Fit == FitCover {
		add("object-fit", "cover")
	} else {
		add("object-fit", "contain")
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Property < out[j].Property })
	return out
}

// CSS serializes the style as an inline style attribute value
func (s Style) CSS() string {
	decls := s.Declarations()
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, ";")
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
