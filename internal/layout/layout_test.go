package layout

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/cutticket/internal/style"
)

// fixedMeasurer treats every rune as 10px wide and wraps on spaces.
type fixedMeasurer struct{}

func (fixedMeasurer) Width(s string, _ style.Style) float64 {
	return float64(len([]rune(s))) * 10
}

func (m fixedMeasurer) Wrap(s string, st style.Style, maxWidth float64) []string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		line := ""
		for _, w := range strings.Fields(para) {
			cand := strings.TrimSpace(line + " " + w)
			if line != "" && maxWidth > 0 && m.Width(cand, st) > maxWidth {
				out = append(out, line)
				line = w
				continue
			}
			line = cand
		}
		out = append(out, line)
	}
	return out
}

type rect struct{ X, Y, W, H float64 }

func geom(b *Placed) rect { return rect{b.X, b.Y, b.W, b.H} }

func TestNodeImmutable(t *testing.T) {
	kids := []*Node{Text("a", style.Style{}), Text("b", style.Style{})}
	n := Box(style.Style{}, kids...)
	kids[0] = Text("changed", style.Style{})

	got := n.Children()
	got[1] = nil
	assert.Equal(t, []string{"a", "b"}, Texts(n))
	assert.Equal(t, 2, n.NumChildren())

	tagged := n.WithID("root")
	assert.Equal(t, "", n.ID())
	assert.Equal(t, "root", tagged.ID())
	assert.Same(t, tagged, Find(tagged, "root"))
}

func TestBoxSkipsNilChildren(t *testing.T) {
	n := Box(style.Style{}, nil, Text("x", style.Style{}), nil)
	assert.Equal(t, 1, n.NumChildren())
}

func TestColumnStacking(t *testing.T) {
	root := Box(style.Style{Width: 200, Padding: style.Uniform(10), Gap: 5},
		Box(style.Style{Height: 40}).WithID("a"),
		Box(style.Style{Height: 60}).WithID("b"),
	)
	b := Compute(root, fixedMeasurer{})

	assert.Equal(t, rect{0, 0, 200, 125}, geom(b))
	assert.Equal(t, rect{10, 10, 180, 40}, geom(b.Find("a")))
	assert.Equal(t, rect{10, 55, 180, 60}, geom(b.Find("b")))
}

func TestRowSharing(t *testing.T) {
	root := Box(style.Style{Width: 300, Height: 100, Direction: style.Row, Gap: 20},
		Box(style.Style{Width: 80}).WithID("fixed"),
		Box(style.Style{}).WithID("l"),
		Box(style.Style{}).WithID("r"),
	)
	b := Compute(root, fixedMeasurer{})

	want := map[string]rect{
		"fixed": {0, 0, 80, 100},
		"l":     {100, 0, 90, 100},
		"r":     {210, 0, 90, 100},
	}
	got := map[string]rect{}
	for id := range want {
		got[id] = geom(b.Find(id))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("row geometry (-want +got):\n%s", diff)
	}
}

func TestRowDerivedHeight(t *testing.T) {
	root := Box(style.Style{Width: 100, Direction: style.Row},
		Box(style.Style{Height: 30}),
		Box(style.Style{Height: 70}),
	)
	b := Compute(root, fixedMeasurer{})
	assert.Equal(t, 70.0, b.H)
	assert.Equal(t, 30.0, b.Children[0].H)
}

func TestTextWrapAndInherit(t *testing.T) {
	root := Box(style.Style{Width: 90, FontSize: 10, LineHeight: 2},
		Text("cut on the bias", style.Style{}).WithID("t"),
	)
	b := Compute(root, fixedMeasurer{})
	tb := b.Find("t")
	require.NotNil(t, tb)
	assert.Equal(t, []string{"cut on", "the bias"}, tb.Lines)
	assert.Equal(t, 40.0, tb.H)
	assert.Equal(t, 10.0, tb.Style.FontSize)
	assert.Equal(t, style.DefaultColor, tb.Style.Color)
}

func TestTextPreservesLineBreaks(t *testing.T) {
	b := Compute(Box(style.Style{Width: 500}, Text("a\n\nb", style.Style{}).WithID("t")), fixedMeasurer{})
	assert.Equal(t, []string{"a", "", "b"}, b.Find("t").Lines)
}

func TestFrameCentersFallback(t *testing.T) {
	f := Frame(200, 100, Text("EMPTY", style.Style{FontSize: 10, LineHeight: 2}).WithID("t"))
	b := Compute(f, fixedMeasurer{})
	tb := b.Find("t")
	require.NotNil(t, tb)
	// 5 runes * 10px, centered in the 198px content box
	assert.InDelta(t, 1+(198-50)/2.0, tb.X, 1e-9)
	assert.InDelta(t, 1+(98-20)/2.0, tb.Y, 1e-9)
}

func TestOverlayPinnedToBottom(t *testing.T) {
	cell := Box(style.Style{Width: 100, Height: 80},
		Picture("p1.png", style.FitCover, 100, 80).WithID("img"),
		Box(style.Style{Position: style.OverlayBottom, Height: 20}).WithID("label"),
	)
	b := Compute(cell, fixedMeasurer{})
	assert.Equal(t, rect{0, 0, 100, 80}, geom(b.Find("img")))
	assert.Equal(t, rect{0, 60, 100, 20}, geom(b.Find("label")))
	assert.Equal(t, 80.0, b.H)
}

func TestPrimitives(t *testing.T) {
	p := Picture("x.png", style.FitCover, 40, 30)
	assert.Equal(t, KindImage, p.Kind())
	assert.Equal(t, style.FitCover, p.Style().Fit)
	assert.Equal(t, "x.png", p.Src())

	ph := Placeholder("NO PRIMARY IMAGE", 300, 200)
	assert.True(t, ph.Style().Border.Dashed)
	assert.Equal(t, []string{"NO PRIMARY IMAGE"}, Texts(ph))

	empty := Frame(50, 50, nil)
	assert.Zero(t, empty.NumChildren())
	assert.Equal(t, 1.0, empty.Style().Border.Width)
}

func TestSourcesOrder(t *testing.T) {
	n := Box(style.Style{}, Image("a", style.Style{}), Box(style.Style{}, Image("b", style.Style{})))
	assert.Equal(t, []string{"a", "b"}, Sources(n))
}
