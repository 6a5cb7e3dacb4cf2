package delegate

import (
	"slices"
)

// HandlerFunc handles one dispatched event. Returning ErrCancel prevents the
// default action and stops propagation; any other error is reported to the
// registry's error handler and dispatch carries on.
type HandlerFunc func(e *Event) error

// Handler is a registered callback. Handlers are compared by pointer, so
// keep the *Handler returned by NewHandler to remove it later.
type Handler struct {
	name string
	fn   HandlerFunc

	// set on the wrapper created by One
	origin *Handler
}

// NewHandler wraps fn as a Handler.
func NewHandler(fn HandlerFunc) *Handler {
	return &Handler{fn: fn}
}

// NamedHandler is NewHandler with a name used in logs and errors.
func NamedHandler(name string, fn HandlerFunc) *Handler {
	return &Handler{name: name, fn: fn}
}

// Name returns the handler name, or "" for anonymous handlers.
func (h *Handler) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

func (h *Handler) valid() bool {
	return h != nil && h.fn != nil
}

// is reports whether h was registered as other, either directly or as the
// one-shot wrapper around it.
func (h *Handler) is(other *Handler) bool {
	return h == other || (h.origin != nil && h.origin == other)
}

// record is one entry in a handler list.
type record struct {
	handler  *Handler
	selector string
}

func (r record) delegated() bool {
	return r.selector != ""
}

// handlerList holds the handlers for one event type on one host. Entries
// [0, delegateCount) are delegated, the rest are direct.
type handlerList struct {
	records       []record
	delegateCount int

	// installed is true while the dispatch listener is attached for the type
	installed bool
	// plugin that attached the listener, nil for native
	plugin Plugin
}

func (l *handlerList) add(rec record) {
	if rec.delegated() {
		l.records = slices.Insert(l.records, l.delegateCount, rec)
		l.delegateCount++
		return
	}
	l.records = append(l.records, rec)
}

// remove deletes the first record registered with h itself and selector.
// Only when there is none does it fall back to the first one-shot wrapper
// around h.
func (l *handlerList) remove(h *Handler, selector string) bool {
	i := slices.IndexFunc(l.records, func(rec record) bool {
		return rec.selector == selector && rec.handler == h
	})
	if i < 0 {
		i = slices.IndexFunc(l.records, func(rec record) bool {
			return rec.selector == selector && rec.handler.is(h)
		})
	}
	if i < 0 {
		return false
	}
	l.records = slices.Delete(l.records, i, i+1)
	if i < l.delegateCount {
		l.delegateCount--
	}
	return true
}

func (l *handlerList) len() int {
	return len(l.records)
}

func (l *handlerList) delegated() []record {
	return l.records[:l.delegateCount]
}

func (l *handlerList) direct() []record {
	return l.records[l.delegateCount:]
}
