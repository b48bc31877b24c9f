package markup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/gompdf/cutticket/internal/layout"
	"github.com/gompdf/cutticket/internal/pages"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/style"
)

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func byID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := byID(c, id); f != nil {
			return f
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestDocumentStructure(t *testing.T) {
	rec := &record.Record{Title: "Jacket <A>", Notes: "line one\nline two"}
	out, err := String(context.Background(), pages.Main(rec), Options{Title: rec.Filename()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.NotContains(t, out, "@font-face")

	doc := parse(t, out)
	main := byID(doc, pages.IDMainPage)
	require.NotNil(t, main)
	assert.Equal(t, "div", main.Data)

	title := byID(doc, pages.IDTitle)
	require.NotNil(t, title)
	assert.Equal(t, "Jacket <A>", title.FirstChild.Data)

	notes := byID(doc, pages.IDNotes)
	assert.Equal(t, "line one\nline two", notes.FirstChild.Data)
	assert.Contains(t, attr(notes, "style"), "white-space:pre-wrap")

	brand := byID(doc, pages.IDBrand)
	assert.Equal(t, "img", brand.Data)
	assert.Equal(t, pages.BrandSource, attr(brand, "src"))
}

func TestStyleAttributeParsesBack(t *testing.T) {
	st := style.Style{Width: 120, Height: 80, Padding: style.Uniform(4), Border: style.Border{Width: 1, Color: style.RGB(9, 9, 9), Dashed: true}}
	n := layout.Box(st).WithID("box")
	out, err := String(context.Background(), n, Options{})
	require.NoError(t, err)

	got, err := style.Parse(attr(byID(parse(t, out), "box"), "style"))
	require.NoError(t, err)
	if diff := cmp.Diff(st, got); diff != "" {
		t.Errorf("style mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver(t *testing.T) {
	n := layout.Box(style.Style{}, layout.Picture("asset:brand.svg", style.FitContain, 10, 10).WithID("img"))
	out, err := String(context.Background(), n, Options{
		Resolve: func(_ context.Context, src string) (string, error) {
			return "data:image/svg+xml;base64,AAAA#" + src, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/svg+xml;base64,AAAA#asset:brand.svg", attr(byID(parse(t, out), "img"), "src"))

	boom := errors.New("unreachable")
	_, err = String(context.Background(), n, Options{
		Resolve: func(context.Context, string) (string, error) { return "", boom },
	})
	assert.ErrorIs(t, err, boom)
}

func TestEmbedFonts(t *testing.T) {
	out, err := String(context.Background(), layout.Box(style.Style{}), Options{EmbedFonts: true})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "@font-face"))
	assert.Contains(t, out, "font-family:"+FontFamily)
}

func TestInheritedPropertiesNotRepeated(t *testing.T) {
	n := layout.Box(style.Style{FontSize: 20}, layout.Text("x", style.Style{}).WithID("t"))
	out, err := String(context.Background(), n, Options{})
	require.NoError(t, err)
	assert.NotContains(t, attr(byID(parse(t, out), "t"), "style"), "font-size")
}
