package gesture

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/pfrederiksen/domevents/internal/dom"
)

// Alias maps logical event types onto native ones, for example "press"
// onto "mousedown". Handlers see the logical type.
type Alias struct {
	doc      dom.Document
	types    map[string]string
	bindings map[binding]*dom.Listener
}

// NewAlias creates an Alias plugin for the given logical → native mapping.
func NewAlias(doc dom.Document, types map[string]string) *Alias {
	copied := make(map[string]string, len(types))
	for logical, native := range types {
		copied[logical] = native
	}
	return &Alias{
		doc:   doc,
		types: copied,
	}
}

// Init validates the mapping.
func (a *Alias) Init() error {
	if a.doc == nil {
		return fmt.Errorf("alias plugin needs a document")
	}
	for logical, native := range a.types {
		if logical == "" || native == "" {
			return fmt.Errorf("alias %q -> %q: empty event type", logical, native)
		}
		if logical == native {
			return fmt.Errorf("alias %q maps onto itself", logical)
		}
	}
	a.bindings = make(map[binding]*dom.Listener)
	return nil
}

// Detect claims every logical type in the mapping.
func (a *Alias) Detect(typ string) bool {
	_, ok := a.types[typ]
	return ok
}

// Native returns the native type behind a logical one.
func (a *Alias) Native(typ string) string {
	return a.types[typ]
}

// Attach listens for the native type on el and re-delivers it as typ.
func (a *Alias) Attach(el *html.Node, typ string, l *dom.Listener) {
	if a.bindings == nil {
		a.bindings = make(map[binding]*dom.Listener)
	}
	key := binding{el: el, typ: typ, l: l}
	if _, ok := a.bindings[key]; ok {
		return
	}
	proxy := dom.NewListener(func(e *dom.Event) {
		forward(l, dom.NewEvent(typ, e.Target, e.Detail), e)
	})
	a.doc.AddEventListener(el, a.types[typ], proxy)
	a.bindings[key] = proxy
}

// Detach removes the proxy installed by Attach.
func (a *Alias) Detach(el *html.Node, typ string, l *dom.Listener) {
	key := binding{el: el, typ: typ, l: l}
	proxy, ok := a.bindings[key]
	if !ok {
		return
	}
	a.doc.RemoveEventListener(el, a.types[typ], proxy)
	delete(a.bindings, key)
}
