package delegate

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"golang.org/x/net/html"

	"github.com/pfrederiksen/domevents/internal/dom"
)

// Host is the dispatch record of one element.
type Host struct {
	id       uint64
	element  *html.Node
	handlers map[string]*handlerList
	registry *Registry

	// listener is shared by every type installed on the element
	listener *dom.Listener
	disposed bool
}

func newHost(r *Registry, id uint64, el *html.Node) *Host {
	h := &Host{
		id:       id,
		element:  el,
		handlers: make(map[string]*handlerList),
		registry: r,
	}
	h.listener = dom.NewListener(h.dispatch)
	return h
}

// ID returns the host identity.
func (h *Host) ID() uint64 {
	return h.id
}

// Element returns the element the host dispatches for.
func (h *Host) Element() *html.Node {
	return h.element
}

// Types returns the event types with at least one handler, sorted.
func (h *Host) Types() []string {
	types := make([]string, 0, len(h.handlers))
	for typ, list := range h.handlers {
		if list.len() > 0 {
			types = append(types, typ)
		}
	}
	sort.Strings(types)
	return types
}

// Len returns the number of handlers registered for typ.
func (h *Host) Len(typ string) int {
	if list, ok := h.handlers[typ]; ok {
		return list.len()
	}
	return 0
}

// DelegateCount returns the number of delegated handlers for typ.
func (h *Host) DelegateCount(typ string) int {
	if list, ok := h.handlers[typ]; ok {
		return list.delegateCount
	}
	return 0
}

// Installed reports whether the dispatch listener is attached for typ.
func (h *Host) Installed(typ string) bool {
	list, ok := h.handlers[typ]
	return ok && list.installed
}

func (h *Host) on(typ, selector string, handler *Handler) {
	list, ok := h.handlers[typ]
	if !ok {
		list = &handlerList{}
		h.handlers[typ] = list
	}
	if !list.installed {
		h.registry.attach(h, typ, list)
	}
	list.add(record{handler: handler, selector: selector})
}

func (h *Host) off(typ, selector string, handler *Handler) {
	list, ok := h.handlers[typ]
	if !ok {
		return
	}
	list.remove(handler, selector)
	// the emptied list is kept; the next On reinstalls the listener
	if list.len() == 0 {
		h.registry.detach(h, typ, list)
	}
}

func (h *Host) dispose() {
	for typ, list := range h.handlers {
		h.registry.detach(h, typ, list)
	}
	h.handlers = make(map[string]*handlerList)
	h.disposed = true
}

// match is one handler invocation planned for a dispatch.
type match struct {
	record
	this *html.Node
}

// matches builds the invocation list for e: delegated handlers level by
// level from the target up to the host, then the direct handlers. The
// result shares no memory with the handler list.
func (h *Host) matches(e *dom.Event) []match {
	list, ok := h.handlers[e.Type]
	if !ok {
		return nil
	}

	var out []match
	if list.delegateCount > 0 {
		delegated := list.delegated()
		selected := make(map[string]map[*html.Node]bool)
		for n := e.Target; n != nil && n != h.element; n = n.Parent {
			for _, rec := range delegated {
				if h.selects(rec.selector, n, selected) {
					out = append(out, match{record: rec, this: n})
				}
			}
		}
	}
	for _, rec := range list.direct() {
		out = append(out, match{record: rec, this: h.element})
	}
	return out
}

// selects reports whether selector, queried within the host element,
// selects n. Query results are cached for the duration of one dispatch.
func (h *Host) selects(selector string, n *html.Node, cache map[string]map[*html.Node]bool) bool {
	set, ok := cache[selector]
	if !ok {
		set = make(map[*html.Node]bool)
		for _, found := range h.registry.doc.QueryAll(selector, h.element) {
			set[found] = true
		}
		cache[selector] = set
	}
	return set[n]
}

// dispatch is the listener installed for every type on the host.
func (h *Host) dispatch(native *dom.Event) {
	if h.disposed {
		return
	}
	start := time.Now()
	metrics := h.registry.metrics
	metrics.IncrCounter("dispatch.events")

	matches := h.matches(native)
	if len(matches) == 0 {
		return
	}

	e := newEvent(native, h)
	for _, m := range matches {
		e.currentTarget = m.this
		metrics.IncrCounter("dispatch.invocations")

		err := h.invoke(m, e)
		switch {
		case err == nil:
		case errors.Is(err, ErrCancel):
			e.PreventDefault()
			e.StopPropagation()
		default:
			h.registry.report(err)
		}

		if e.IsPropagationStopped() {
			metrics.IncrCounter("dispatch.stopped")
			break
		}
	}
	e.currentTarget = nil

	metrics.RecordTiming("dispatch.duration", time.Since(start))
}

// invoke runs one match, converting failures into *HandlerError or
// *PanicError.
func (h *Host) invoke(m match, e *Event) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{
				Host:     h.id,
				Type:     e.Type(),
				Selector: m.selector,
				Handler:  m.handler.name,
				Value:    v,
				Stack:    string(debug.Stack()),
			}
		}
	}()

	err = m.handler.fn(e)
	if err == nil || errors.Is(err, ErrCancel) {
		return err
	}
	return &HandlerError{
		Host:     h.id,
		Type:     e.Type(),
		Selector: m.selector,
		Handler:  m.handler.name,
		Err:      err,
	}
}

// String describes the host for logs.
func (h *Host) String() string {
	return fmt.Sprintf("host %d (%s)", h.id, dom.Describe(h.element))
}
