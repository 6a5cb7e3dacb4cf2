package gesture

import (
	"golang.org/x/net/html"

	"github.com/pfrederiksen/domevents/internal/dom"
)

// binding identifies one attached (element, type, listener) triple.
type binding struct {
	el  *html.Node
	typ string
	l   *dom.Listener
}

// forward delivers a synthetic event to l and copies the cancellation
// flags back onto the native event that produced it.
func forward(l *dom.Listener, synthetic, native *dom.Event) {
	l.Handle(synthetic)
	if synthetic.DefaultPrevented() {
		native.PreventDefault()
	}
	if synthetic.PropagationStopped() {
		native.StopPropagation()
	}
}
