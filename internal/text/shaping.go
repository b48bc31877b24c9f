// Package text measures and wraps strings using the embedded Go fonts.
package text

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/gompdf/cutticket/internal/style"
)

// Fonts holds the parsed regular and bold faces and caches sized faces for
// measurement. Its methods are safe for concurrent use.
type Fonts struct {
	regular *truetype.Font
	bold    *truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

// NewFonts parses the embedded Go regular and bold fonts
func NewFonts() (*Fonts, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Fonts{regular: regular, bold: bold, faces: make(map[faceKey]font.Face)}, nil
}

var (
	defaultOnce  sync.Once
	defaultFonts *Fonts
)

// Default returns the shared Fonts instance
func Default() *Fonts {
	defaultOnce.Do(func() {
		f, err := NewFonts()
		if err != nil {
			// the fonts are compiled in; failure means a broken build
			panic(err)
		}
		defaultFonts = f
	})
	return defaultFonts
}

// NewFace returns a fresh face for drawing at the given pixel size. Faces are
// not safe for concurrent use, so each caller owns the returned face.
func (f *Fonts) NewFace(size float64, w style.Weight) font.Face {
	ft := f.regular
	if w == style.WeightBold {
		ft = f.bold
	}
	return truetype.NewFace(ft, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// withFace runs fn with the cached measurement face for st
func (f *Fonts) withFace(st style.Style, fn func(font.Face)) {
	size := st.FontSize
	if size <= 0 {
		size = style.DefaultFontSize
	}
	key := faceKey{size: size, bold: st.FontWeight == style.WeightBold}

	f.mu.Lock()
	defer f.mu.Unlock()
	face, ok := f.faces[key]
	if !ok {
		face = f.NewFace(size, st.FontWeight)
		f.faces[key] = face
	}
	fn(face)
}

// Width returns the advance width of s in pixels
func (f *Fonts) Width(s string, st style.Style) float64 {
	var w fixed.Int26_6
	f.withFace(st, func(face font.Face) {
		w = font.MeasureString(face, s)
	})
	return float64(w) / 64
}

// Ascent returns the distance from the top of a line box to the baseline,
// with the half-leading of the line height applied.
func (f *Fonts) Ascent(st style.Style) float64 {
	var m font.Metrics
	f.withFace(st, func(face font.Face) {
		m = face.Metrics()
	})
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	return (st.LineAdvance()-(ascent+descent))/2 + ascent
}

// Wrap breaks s into lines no wider than maxWidth. Explicit line breaks are
// kept, runs of spaces collapse, and words wider than maxWidth are split.
func (f *Fonts) Wrap(s string, st style.Style, maxWidth float64) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		lines = append(lines, f.wrapParagraph(para, st, maxWidth)...)
	}
	return lines
}

func (f *Fonts) wrapParagraph(para string, st style.Style, maxWidth float64) []string {
	words := splitIntoWords(para)
	if len(words) == 0 {
		return []string{""}
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if f.Width(candidate, st) <= maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for _, piece := range f.breakWord(word, st, maxWidth) {
			if current != "" {
				lines = append(lines, current)
			}
			current = piece
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// breakWord splits a single word into pieces that fit maxWidth
func (f *Fonts) breakWord(word string, st style.Style, maxWidth float64) []string {
	if f.Width(word, st) <= maxWidth {
		return []string{word}
	}
	var pieces []string
	var b strings.Builder
	for _, r := range word {
		if b.Len() > 0 && f.Width(b.String()+string(r), st) > maxWidth {
			pieces = append(pieces, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}

// splitIntoWords splits text on unicode whitespace
func splitIntoWords(text string) []string {
	return strings.FieldsFunc(text, unicode.IsSpace)
}
