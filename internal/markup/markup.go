// Package markup serializes layout trees into standalone HTML documents.
package markup

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gompdf/cutticket/internal/layout"
	"github.com/gompdf/cutticket/internal/style"
)

// FontFamily is the family name the embedded faces are registered under.
const FontFamily = "CutTicketGo"

// Resolver maps an image source to a URL the consumer of the HTML can load
type Resolver func(ctx context.Context, src string) (string, error)

// Options controls document generation
type Options struct {
	// Title is written to the head
	Title string
	// Resolve rewrites image sources; nil keeps them as they are
	Resolve Resolver
	// EmbedFonts inlines the Go fonts so text metrics match the raster backend
	EmbedFonts bool
}

// Document converts a page tree into a complete HTML document
func Document(ctx context.Context, n *layout.Node, opts Options) (*html.Node, error) {
	body, err := convert(ctx, n, style.Root(), opts.Resolve)
	if err != nil {
		return nil, err
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	root.AppendChild(head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	if opts.Title != "" {
		title := element(atom.Title)
		title.AppendChild(&html.Node{Type: html.TextNode, Data: opts.Title})
		head.AppendChild(title)
	}
	css := element(atom.Style)
	css.AppendChild(&html.Node{Type: html.TextNode, Data: baseCSS(opts.EmbedFonts)})
	head.AppendChild(css)

	bodyEl := element(atom.Body)
	root.AppendChild(bodyEl)
	bodyEl.AppendChild(body)
	return doc, nil
}

// Render writes the HTML document for n to w
func Render(ctx context.Context, w io.Writer, n *layout.Node, opts Options) error {
	doc, err := Document(ctx, n, opts)
	if err != nil {
		return err
	}
	return html.Render(w, doc)
}

// String returns the HTML document for n
func String(ctx context.Context, n *layout.Node, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := Render(ctx, &buf, n, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

// convert maps one node to an element. Text properties are written only where
// they differ from the parent so the browser's own inheritance applies.
func convert(ctx context.Context, n *layout.Node, parent style.Style, resolve Resolver) (*html.Node, error) {
	st := n.Style()
	resolved := st.Inherit(parent)

	var el *html.Node
	switch n.Kind() {
	case layout.KindImage:
		el = element(atom.Img)
		src := n.Src()
		if resolve != nil {
			var err error
			if src, err = resolve(ctx, src); err != nil {
				return nil, fmt.Errorf("resolve image %q: %w", n.Src(), err)
			}
		}
		el.Attr = append(el.Attr, html.Attribute{Key: "src", Val: src}, html.Attribute{Key: "alt", Val: ""})
	case layout.KindText:
		el = element(atom.Div)
		el.AppendChild(&html.Node{Type: html.TextNode, Data: n.Text()})
	default:
		el = element(atom.Div)
	}

	if id := n.ID(); id != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "id", Val: id})
	}
	el.Attr = append(el.Attr,
		html.Attribute{Key: "data-kind", Val: n.Kind().String()},
		html.Attribute{Key: "style", Val: inlineCSS(st, n.Kind())},
	)

	for _, c := range n.Children() {
		ce, err := convert(ctx, c, resolved, resolve)
		if err != nil {
			return nil, err
		}
		el.AppendChild(ce)
	}
	return el, nil
}

func inlineCSS(st style.Style, k layout.Kind) string {
	css := st.CSS()
	switch k {
	case layout.KindText:
		css += ";display:block;white-space:pre-wrap;overflow-wrap:anywhere;overflow:hidden"
	case layout.KindImage:
		css += ";display:block"
	default:
		css += ";overflow:hidden"
	}
	return css
}

func baseCSS(embed bool) string {
	css := "html,body{margin:0;padding:0;background:#ffffff}" +
		"body{width:" + strconv.Itoa(layout.PageWidth) + "px;height:" + strconv.Itoa(layout.PageHeight) + "px;overflow:hidden;" +
		"font-family:" + FontFamily + ",Helvetica,Arial,sans-serif;-webkit-font-smoothing:antialiased}"
	if embed {
		css = fontFace(goregular.TTF, 400) + fontFace(gobold.TTF, 700) + css
	}
	return css
}

func fontFace(ttf []byte, weight int) string {
	return "@font-face{font-family:" + FontFamily + ";font-weight:" + strconv.Itoa(weight) +
		";src:url(data:font/ttf;base64," + base64.StdEncoding.EncodeToString(ttf) + ") format('truetype')}"
}
