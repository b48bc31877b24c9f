package record

import "fmt"

// SwatchRole names one of the four fixed fabric-reference slots.
type SwatchRole int

const (
	MainFabric SwatchRole = iota
	ContrastFabric
	Lining
	Trim
)

// SwatchRoles lists every role in display order.
var SwatchRoles = [...]SwatchRole{MainFabric, ContrastFabric, Lining, Trim}

var swatchTable = [...]struct {
	key   string
	label string
}{
	MainFabric:     {"main_fabric", "Main Fabric"},
	ContrastFabric: {"contrast_fabric", "Contrast Fabric"},
	Lining:         {"lining", "Lining"},
	Trim:           {"trim", "Trim"},
}

// Key returns the stable identifier used in storage and URLs.
func (r SwatchRole) Key() string {
	if !r.Valid() {
		return fmt.Sprintf("swatch(%d)", int(r))
	}
	return swatchTable[r].key
}

// Label returns the display name of the role.
func (r SwatchRole) Label() string {
	if !r.Valid() {
		return r.Key()
	}
	return swatchTable[r].label
}

func (r SwatchRole) String() string { return r.Key() }

// Valid reports whether r is one of the four roles.
func (r SwatchRole) Valid() bool {
	return r >= MainFabric && r <= Trim
}

// ParseSwatchRole maps a key such as "contrast_fabric" to its role.
func ParseSwatchRole(key string) (SwatchRole, error) {
	for _, r := range SwatchRoles {
		if swatchTable[r].key == key {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown swatch role %q", ErrInvalid, key)
}

// Swatch is the content of one slot: an image, free text, or nothing.
type Swatch struct {
	Image *Attachment `json:"image,omitempty" yaml:"image,omitempty"`
	Text  string      `json:"text,omitempty" yaml:"text,omitempty"`
}

// Content classifies what a swatch slot will display.
type Content int

const (
	ContentEmpty Content = iota
	ContentText
	ContentImage
)

// Content returns what the slot shows: image over text over nothing.
func (s Swatch) Content() Content {
	switch {
	case !s.Image.IsZero():
		return ContentImage
	case s.Text != "":
		return ContentText
	default:
		return ContentEmpty
	}
}

// Swatches holds one Swatch per role.
type Swatches struct {
	MainFabric     Swatch `json:"mainFabric,omitempty" yaml:"mainFabric,omitempty"`
	ContrastFabric Swatch `json:"contrastFabric,omitempty" yaml:"contrastFabric,omitempty"`
	Lining         Swatch `json:"lining,omitempty" yaml:"lining,omitempty"`
	Trim           Swatch `json:"trim,omitempty" yaml:"trim,omitempty"`
}

// slot returns a pointer to the field for role.
func (s *Swatches) slot(role SwatchRole) *Swatch {
	switch role {
	case MainFabric:
		return &s.MainFabric
	case ContrastFabric:
		return &s.ContrastFabric
	case Lining:
		return &s.Lining
	case Trim:
		return &s.Trim
	}
	return nil
}

// Get returns the swatch for role; invalid roles yield an empty swatch.
func (s Swatches) Get(role SwatchRole) Swatch {
	if p := s.slot(role); p != nil {
		return *p
	}
	return Swatch{}
}

// Set replaces the swatch for role.
func (s *Swatches) Set(role SwatchRole, sw Swatch) {
	if p := s.slot(role); p != nil {
		*p = sw
	}
}

func (s Swatches) clone() Swatches {
	out := s
	for _, role := range SwatchRoles {
		sw := s.Get(role)
		if sw.Image != nil {
			img := *sw.Image
			sw.Image = &img
		}
		out.Set(role, sw)
	}
	return out
}

// Swatch returns the swatch stored for role.
func (r *Record) Swatch(role SwatchRole) Swatch {
	return r.Swatches.Get(role)
}
