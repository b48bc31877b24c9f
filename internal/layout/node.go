// Package layout builds immutable page trees and computes their geometry.
package layout

import "github.com/gompdf/cutticket/internal/style"

// Kind tags the variant of a Node
type Kind int

const (
	KindBox Kind = iota
	KindImage
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Node is an immutable layout description. Constructors copy their inputs
// and accessors return copies, so a tree can be shared freely once built.
type Node struct {
	kind     Kind
	id       string
	style    style.Style
	children []*Node
	text     string
	src      string
}

// Box returns a container node
func Box(st style.Style, children ...*Node) *Node {
	kids := make([]*Node, 0, len(children))
	for _, c := range children {
		if c != nil {
			kids = append(kids, c)
		}
	}
	return &Node{kind: KindBox, style: st, children: kids}
}

// Image returns an image node for src
func Image(src string, st style.Style) *Node {
	return &Node{kind: KindImage, style: st, src: src}
}

// Text returns a text node. Line breaks in s are preserved.
func Text(s string, st style.Style) *Node {
	return &Node{kind: KindText, style: st, text: s}
}

// WithID returns a copy of n carrying id
func (n *Node) WithID(id string) *Node {
	c := *n
	c.id = id
	return &c
}

// WithStyle returns a copy of n with st merged over its style
func (n *Node) WithStyle(st style.Style) *Node {
	c := *n
	c.style = n.style.Merge(st)
	return &c
}

func (n *Node) Kind() Kind         { return n.kind }
func (n *Node) ID() string         { return n.id }
func (n *Node) Style() style.Style { return n.style }
func (n *Node) Text() string       { return n.text }
func (n *Node) Src() string        { return n.src }
func (n *Node) NumChildren() int   { return len(n.children) }
func (n *Node) Child(i int) *Node  { return n.children[i] }

// Children returns a copy of the child list
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children {
		Walk(c, fn)
	}
}

// Find returns the first node with the given id
func Find(root *Node, id string) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.id == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Texts returns the text content of every text node in document order
func Texts(root *Node) []string {
	var out []string
	Walk(root, func(n *Node) bool {
		if n.kind == KindText {
			out = append(out, n.text)
		}
		return true
	})
	return out
}

// Sources returns the src of every image node in document order
func Sources(root *Node) []string {
	var out []string
	Walk(root, func(n *Node) bool {
		if n.kind == KindImage {
			out = append(out, n.src)
		}
		return true
	})
	return out
}
