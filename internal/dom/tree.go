package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is the DOM capability consumed by the event layer: native
// listener registration and selector queries scoped to a subtree.
type Document interface {
	AddEventListener(el *html.Node, typ string, l *Listener)
	RemoveEventListener(el *html.Node, typ string, l *Listener)
	QueryAll(selector string, root *html.Node) []*html.Node
}

// Tree is a parsed HTML document with a native listener table.
// It is not safe for concurrent use; all calls belong on one goroutine.
type Tree struct {
	doc       *goquery.Document
	listeners map[*html.Node]map[string][]*Listener
}

var _ Document = (*Tree)(nil)

// NewTree wraps an already parsed goquery document.
func NewTree(doc *goquery.Document) *Tree {
	return &Tree{
		doc:       doc,
		listeners: make(map[*html.Node]map[string][]*Listener),
	}
}

// Parse reads HTML from r into a new Tree.
func Parse(r io.Reader) (*Tree, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return NewTree(doc), nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Tree, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (t *Tree) Root() *html.Node {
	if len(t.doc.Nodes) == 0 {
		return nil
	}
	return t.doc.Nodes[0]
}

// Find returns every element in the document matching selector.
func (t *Tree) Find(selector string) []*html.Node {
	return t.doc.Find(selector).Nodes
}

// First returns the first element matching selector, or nil.
func (t *Tree) First(selector string) *html.Node {
	nodes := t.Find(selector)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// QueryAll returns the descendants of root matching selector. The root
// itself is never part of the result, and combinators may reach above
// root, mirroring querySelectorAll.
func (t *Tree) QueryAll(selector string, root *html.Node) []*html.Node {
	if root == nil {
		return nil
	}
	return goquery.NewDocumentFromNode(root).Find(selector).Nodes
}

// AddEventListener registers l for typ on el. Adding the same listener
// twice for the same type has no effect.
func (t *Tree) AddEventListener(el *html.Node, typ string, l *Listener) {
	if el == nil || l == nil {
		return
	}
	byType, ok := t.listeners[el]
	if !ok {
		byType = make(map[string][]*Listener)
		t.listeners[el] = byType
	}
	for _, existing := range byType[typ] {
		if existing == l {
			return
		}
	}
	byType[typ] = append(byType[typ], l)
}

// RemoveEventListener unregisters l for typ on el. Unknown listeners are ignored.
func (t *Tree) RemoveEventListener(el *html.Node, typ string, l *Listener) {
	byType, ok := t.listeners[el]
	if !ok {
		return
	}
	list := byType[typ]
	for i, existing := range list {
		if existing == l {
			byType[typ] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(byType[typ]) == 0 {
		delete(byType, typ)
	}
	if len(byType) == 0 {
		delete(t.listeners, el)
	}
}

// ListenerCount returns the number of native listeners for typ on el.
func (t *Tree) ListenerCount(el *html.Node, typ string) int {
	return len(t.listeners[el][typ])
}

// Dispatch delivers a native event of type typ to target and bubbles it
// through every ancestor up to the document node. The listener list of
// each node is copied before it is walked, so listeners may add or
// remove listeners while the event is in flight.
func (t *Tree) Dispatch(target *html.Node, typ string, detail map[string]any) *Event {
	e := NewEvent(typ, target, detail)
	t.DispatchEvent(e)
	return e
}

// DispatchEvent delivers a prepared event, starting at e.Target.
func (t *Tree) DispatchEvent(e *Event) {
	for n := e.Target; n != nil; n = n.Parent {
		list := t.listeners[n][e.Type]
		if len(list) > 0 {
			snapshot := make([]*Listener, len(list))
			copy(snapshot, list)

			e.CurrentTarget = n
			for _, l := range snapshot {
				l.Handle(e)
			}
		}
		if e.propagationStopped {
			break
		}
	}
	e.CurrentTarget = nil
}

// Describe renders a node as tag#id.class for traces and logs.
func Describe(n *html.Node) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Type {
	case html.DocumentNode:
		return "#document"
	case html.TextNode:
		return "#text"
	case html.ElementNode:
	default:
		return fmt.Sprintf("#node(%d)", n.Type)
	}

	var b strings.Builder
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val != "" {
			b.WriteString("#" + a.Val)
		}
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			b.WriteString("." + c)
		}
	}
	return b.String()
}
