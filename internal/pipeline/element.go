package pipeline

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is the view of a document node the rewriters operate on.
type Element interface {
	Tag() string
	Attr(key string) (string, bool)
	SetAttr(key, val string)
	Children() []Element
}

// Visitor is called for every element in document order.
type Visitor func(Element)

// Walk calls visit for el and then for each descendant, depth first.
func Walk(el Element, visit Visitor) {
	visit(el)
	for _, c := range el.Children() {
		Walk(c, visit)
	}
}

// nodeElement adapts an x/net/html node. Non-element nodes (document root,
// text, comments) report an empty tag and carry no attributes, but still
// expose their element children so the walk reaches the whole tree.
type nodeElement struct {
	n *html.Node
}

// Wrap returns the Element view of n.
func Wrap(n *html.Node) Element {
	return nodeElement{n: n}
}

func (e nodeElement) Tag() string {
	if e.n.Type != html.ElementNode {
		return ""
	}
	return e.n.Data
}

func (e nodeElement) Attr(key string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func (e nodeElement) SetAttr(key, val string) {
	if e.n.Type != html.ElementNode {
		return
	}
	for i, a := range e.n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			e.n.Attr[i].Val = val
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: key, Val: val})
}

func (e nodeElement) Children() []Element {
	var out []Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode || c.Type == html.DocumentNode {
			out = append(out, nodeElement{n: c})
		}
	}
	return out
}
