package delegate

import (
	"fmt"
	"slices"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/pfrederiksen/domevents/internal/dom"
	"github.com/pfrederiksen/domevents/internal/logger"
)

// Registry maps elements to their hosts and owns the installed plugins.
// Element identities live in a side table, so elements are never modified.
type Registry struct {
	doc dom.Document

	hosts  map[uint64]*Host
	tags   map[*html.Node]uint64
	nextID uint64

	plugins []Plugin

	policy  TypePolicy
	logger  *logger.Logger
	metrics *logger.Metrics
	onError func(error)
}

// NewRegistry creates a registry dispatching events delivered by doc.
func NewRegistry(doc dom.Document, opts ...Option) *Registry {
	r := &Registry{
		doc:     doc,
		hosts:   make(map[uint64]*Host),
		tags:    make(map[*html.Node]uint64),
		policy:  TypePolicyIgnore,
		logger:  logger.Default(),
		metrics: logger.NewMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Metrics returns the registry's metrics tracker.
func (r *Registry) Metrics() *logger.Metrics {
	return r.metrics
}

// Hosts returns the number of live hosts.
func (r *Registry) Hosts() int {
	return len(r.hosts)
}

// Identity returns the identity tag of el, if it has one.
func (r *Registry) Identity(el *html.Node) (uint64, bool) {
	id, ok := r.tags[el]
	return id, ok
}

// Resolve returns the host for el, creating and tagging it on first use.
func (r *Registry) Resolve(el *html.Node) *Host {
	if el == nil {
		return nil
	}
	if id, ok := r.tags[el]; ok {
		return r.hosts[id]
	}

	r.nextID++
	h := newHost(r, r.nextID, el)
	r.tags[el] = h.id
	r.hosts[h.id] = h
	r.metrics.SetGauge("hosts", float64(len(r.hosts)))

	r.logger.Debug("Host created", logger.Fields{
		"host":    h.id,
		"element": dom.Describe(el),
	})
	return h
}

// On registers h for typ on el. A non-empty selector makes the handler
// delegated: it fires for descendants of el matching selector. An empty
// selector makes it direct.
func (r *Registry) On(el *html.Node, typ, selector string, h *Handler) error {
	if !h.valid() {
		return ErrInvalidHandler
	}
	if el == nil {
		return ErrNilElement
	}
	if !ValidType(typ) {
		return r.invalidType(typ)
	}
	if selector != "" {
		if _, err := cascadia.Compile(selector); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
		}
	}

	r.Resolve(el).on(typ, selector, h)
	return nil
}

// Off removes the first handler registered for typ on el with the same
// handler and selector. Unknown handlers and elements are ignored.
func (r *Registry) Off(el *html.Node, typ, selector string, h *Handler) error {
	if h == nil {
		return nil
	}
	if !ValidType(typ) {
		return r.invalidType(typ)
	}
	id, ok := r.tags[el]
	if !ok {
		return nil
	}
	r.hosts[id].off(typ, selector, h)
	return nil
}

// One registers h so that it runs at most once. The registration is
// removed before h is called, so neither a failure in h nor an event
// dispatched from inside h can run it again. The original handler can be
// passed to Off to cancel the registration before it fires; when h is
// also registered with On for the same type and selector, Off removes that
// plain registration first.
func (r *Registry) One(el *html.Node, typ, selector string, h *Handler) error {
	if !h.valid() {
		return ErrInvalidHandler
	}

	var wrapper *Handler
	fired := false
	wrapper = &Handler{
		name:   h.name,
		origin: h,
		fn: func(e *Event) error {
			// a single dispatch can hold several matches for the wrapper
			if fired {
				return nil
			}
			fired = true
			if err := r.Off(el, typ, selector, wrapper); err != nil {
				return err
			}
			return h.fn(e)
		},
	}
	return r.On(el, typ, selector, wrapper)
}

// Clear disposes the host of el: every listener is detached, the handler
// lists are dropped and el loses its identity. Clearing an element that
// never had handlers is allowed.
func (r *Registry) Clear(el *html.Node) {
	h := r.Resolve(el)
	if h == nil {
		return
	}
	h.dispose()

	delete(r.tags, el)
	delete(r.hosts, h.id)
	r.metrics.SetGauge("hosts", float64(len(r.hosts)))

	r.logger.Debug("Host disposed", logger.Fields{
		"host":    h.id,
		"element": dom.Describe(el),
	})
}

// Close disposes every host, oldest first.
func (r *Registry) Close() {
	ids := make([]uint64, 0, len(r.hosts))
	for id := range r.hosts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		r.Clear(r.hosts[id].element)
	}
}

func (r *Registry) invalidType(typ string) error {
	if r.policy == TypePolicyReject {
		return fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	r.logger.Debug("Ignoring invalid event type", logger.Fields{"type": typ})
	return nil
}

// report sends a handler failure to the error handler.
func (r *Registry) report(err error) {
	r.metrics.IncrCounter("dispatch.errors")
	if r.onError != nil {
		r.onError(err)
		return
	}
	r.logger.Error("Handler failed", nil, err)
}

// attach installs the dispatch listener of h for typ.
func (r *Registry) attach(h *Host, typ string, list *handlerList) {
	list.plugin = r.Plugin(typ)
	if list.plugin != nil {
		list.plugin.Attach(h.element, typ, h.listener)
	} else {
		r.doc.AddEventListener(h.element, typ, h.listener)
	}
	list.installed = true

	r.logger.Debug("Listener installed", logger.Fields{
		"host":   h.id,
		"type":   typ,
		"plugin": list.plugin != nil,
	})
}

// detach removes the listener installed by attach, through the same path.
func (r *Registry) detach(h *Host, typ string, list *handlerList) {
	if !list.installed {
		return
	}
	if list.plugin != nil {
		list.plugin.Detach(h.element, typ, h.listener)
	} else {
		r.doc.RemoveEventListener(h.element, typ, h.listener)
	}
	list.installed = false
	list.plugin = nil

	r.logger.Debug("Listener removed", logger.Fields{
		"host": h.id,
		"type": typ,
	})
}
