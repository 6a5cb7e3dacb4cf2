package delegate

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/pfrederiksen/domevents/internal/dom"
	"github.com/pfrederiksen/domevents/internal/logger"
)

// Plugin takes over listener installation for the event types it detects,
// for example to synthesise gesture events from touch events.
type Plugin interface {
	// Detect reports whether the plugin owns typ.
	Detect(typ string) bool

	// Attach arranges for l to receive events of typ delivered to el.
	Attach(el *html.Node, typ string, l *dom.Listener)

	// Detach undoes Attach.
	Detach(el *html.Node, typ string, l *dom.Listener)
}

// Initializer is implemented by plugins that need set-up before use.
type Initializer interface {
	Init() error
}

// RegisterPlugin initialises p, if it implements Initializer, and appends
// it to the plugin list. Plugins are consulted in registration order.
func (r *Registry) RegisterPlugin(p Plugin) error {
	if p == nil {
		return fmt.Errorf("registering plugin: nil plugin")
	}
	if initializer, ok := p.(Initializer); ok {
		if err := initializer.Init(); err != nil {
			return fmt.Errorf("initialising plugin %T: %w", p, err)
		}
	}
	r.plugins = append(r.plugins, p)

	r.logger.Debug("Plugin registered", logger.Fields{
		"plugin": fmt.Sprintf("%T", p),
	})
	return nil
}

// Plugin returns the first registered plugin that detects typ, or nil.
func (r *Registry) Plugin(typ string) Plugin {
	for _, p := range r.plugins {
		if p.Detect(typ) {
			return p
		}
	}
	return nil
}
