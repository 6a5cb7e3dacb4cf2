package delegate

import (
	"golang.org/x/net/html"

	"github.com/pfrederiksen/domevents/internal/dom"
)

// Event is the view of a native event handed to handlers. One Event is
// created per dispatch and shared by every handler it invokes.
type Event struct {
	native        *dom.Event
	host          *Host
	currentTarget *html.Node
	stopped       bool
}

func newEvent(native *dom.Event, host *Host) *Event {
	return &Event{
		native: native,
		host:   host,
	}
}

// Type returns the event type.
func (e *Event) Type() string {
	return e.native.Type
}

// Target returns the node the event was aimed at.
func (e *Event) Target() *html.Node {
	return e.native.Target
}

// CurrentTarget returns the node the running handler is bound to: the
// matched ancestor for delegated handlers, the host element for direct ones.
func (e *Event) CurrentTarget() *html.Node {
	return e.currentTarget
}

// Host returns the element whose host is dispatching the event.
func (e *Event) Host() *html.Node {
	return e.host.element
}

// Native returns the underlying native event.
func (e *Event) Native() *dom.Event {
	return e.native
}

// Detail returns a value from the native event's detail map.
func (e *Event) Detail(key string) (any, bool) {
	v, ok := e.native.Detail[key]
	return v, ok
}

// StopPropagation stops the native event and prevents the remaining
// handlers of this dispatch from running.
func (e *Event) StopPropagation() {
	e.native.StopPropagation()
	e.stopped = true
}

// IsPropagationStopped reports whether a handler stopped propagation
// during this dispatch.
func (e *Event) IsPropagationStopped() bool {
	return e.stopped
}

// PreventDefault cancels the native default action.
func (e *Event) PreventDefault() {
	e.native.PreventDefault()
}

// IsDefaultPrevented reports whether the default action was cancelled.
func (e *Event) IsDefaultPrevented() bool {
	return e.native.DefaultPrevented()
}
