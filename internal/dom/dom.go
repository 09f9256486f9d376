// Package dom is the read-only document capability the extractor and the
// pagination driver work against. Backends produce a Node snapshot of the
// current page and know how to activate a control on it.
package dom

import (
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is an element of a parsed page
type Node interface {
	// Find returns the first descendant matching selector
	Find(selector string) (Node, bool)
	// FindAll returns every descendant matching selector in document order
	FindAll(selector string) []Node
	// Text returns the trimmed text content
	Text() string
	// Attr returns the attribute value and whether it was present
	Attr(name string) (string, bool)
	Tag() string
	HasClass(class string) bool
	Parent() (Node, bool)
	// PrevElement returns the preceding element sibling
	PrevElement() (Node, bool)
}

// Page is a live or recorded page the crawler is positioned on
type Page interface {
	// Snapshot returns the root of the current document
	Snapshot(ctx context.Context) (Node, error)
	// Activate clicks the first element matching selector
	Activate(ctx context.Context, selector string) error
	// Location returns the current page address
	Location(ctx context.Context) (string, error)
}

type node struct {
	sel *goquery.Selection
}

// Parse reads an HTML document into a Node rooted at the document
func Parse(r io.Reader) (Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return Wrap(goquery.NewDocumentFromNode(root).Selection), nil
}

// ParseString is Parse over an in-memory document
func ParseString(s string) (Node, error) {
	return Parse(strings.NewReader(s))
}

// Wrap adapts a goquery selection. Only the first element is used.
func Wrap(sel *goquery.Selection) Node {
	return &node{sel: sel.First()}
}

func (n *node) Find(selector string) (Node, bool) {
	found := n.sel.Find(selector)
	if found.Length() == 0 {
		return nil, false
	}
	return &node{sel: found.First()}, true
}

func (n *node) FindAll(selector string) []Node {
	found := n.sel.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &node{sel: s})
	})
	return nodes
}

func (n *node) Text() string {
	return strings.TrimSpace(n.sel.Text())
}

func (n *node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n *node) Tag() string {
	return goquery.NodeName(n.sel)
}

func (n *node) HasClass(class string) bool {
	return n.sel.HasClass(class)
}

func (n *node) Parent() (Node, bool) {
	p := n.sel.Parent()
	if p.Length() == 0 || p.Nodes[0].Type != html.ElementNode {
		return nil, false
	}
	return &node{sel: p}, true
}

func (n *node) PrevElement() (Node, bool) {
	p := n.sel.Prev()
	if p.Length() == 0 {
		return nil, false
	}
	return &node{sel: p}, true
}
