package dom

import "golang.org/x/net/html"

// Event is a native event as delivered by a Tree.
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node
	Detail        map[string]any

	defaultPrevented   bool
	propagationStopped bool
}

// NewEvent creates a native event of the given type aimed at target.
func NewEvent(typ string, target *html.Node, detail map[string]any) *Event {
	return &Event{
		Type:   typ,
		Target: target,
		Detail: detail,
	}
}

// PreventDefault marks the default action as cancelled.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// StopPropagation prevents the event from reaching further ancestors.
// Listeners on the current node still run.
func (e *Event) StopPropagation() {
	e.propagationStopped = true
}

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool {
	return e.propagationStopped
}

// Listener is a native event listener. Listeners are compared by pointer,
// so the same *Listener must be passed to add and remove.
type Listener struct {
	fn func(*Event)
}

// NewListener wraps fn as a listener.
func NewListener(fn func(*Event)) *Listener {
	return &Listener{fn: fn}
}

// Handle invokes the listener.
func (l *Listener) Handle(e *Event) {
	if l == nil || l.fn == nil {
		return
	}
	l.fn(e)
}
