package gesture

import (
	"errors"
	"math"

	"golang.org/x/net/html"

	"github.com/pfrederiksen/domevents/internal/dom"
)

const (
	// TypeTap is the synthetic event type produced by Tap.
	TypeTap = "tap"

	TypeTouchStart = "touchstart"
	TypeTouchEnd   = "touchend"

	// DefaultTapThreshold is the largest movement, in CSS pixels, between
	// touchstart and touchend that still counts as a tap.
	DefaultTapThreshold = 10.0
)

// Tap turns a touchstart followed by a touchend on the same target into a
// "tap" event. When both touch events carry "x" and "y" detail values, the
// pointer must not move more than Threshold between them.
type Tap struct {
	Threshold float64

	doc      dom.Document
	bindings map[binding]*tapState
}

type tapState struct {
	start *dom.Listener
	end   *dom.Listener

	active bool
	origin *html.Node
	x, y   float64
	hasPos bool
}

// NewTap creates a Tap plugin installing its touch listeners through doc.
func NewTap(doc dom.Document) *Tap {
	return &Tap{
		Threshold: DefaultTapThreshold,
		doc:       doc,
	}
}

// Init prepares the plugin for use.
func (t *Tap) Init() error {
	if t.doc == nil {
		return errors.New("tap plugin needs a document")
	}
	if t.Threshold < 0 {
		return errors.New("tap threshold cannot be negative")
	}
	t.bindings = make(map[binding]*tapState)
	return nil
}

// Detect claims the "tap" type.
func (t *Tap) Detect(typ string) bool {
	return typ == TypeTap
}

// Attach listens for touch events on el and reports taps to l.
func (t *Tap) Attach(el *html.Node, typ string, l *dom.Listener) {
	if t.bindings == nil {
		t.bindings = make(map[binding]*tapState)
	}
	key := binding{el: el, typ: typ, l: l}
	if _, ok := t.bindings[key]; ok {
		return
	}

	s := &tapState{}
	s.start = dom.NewListener(func(e *dom.Event) {
		s.active = true
		s.origin = e.Target
		s.x, s.y, s.hasPos = position(e)
	})
	s.end = dom.NewListener(func(e *dom.Event) {
		if !s.active {
			return
		}
		s.active = false
		if e.Target != s.origin {
			return
		}
		if x, y, ok := position(e); ok && s.hasPos {
			if math.Hypot(x-s.x, y-s.y) > t.Threshold {
				return
			}
		}
		forward(l, dom.NewEvent(typ, s.origin, e.Detail), e)
	})

	t.doc.AddEventListener(el, TypeTouchStart, s.start)
	t.doc.AddEventListener(el, TypeTouchEnd, s.end)
	t.bindings[key] = s
}

// Detach removes the touch listeners installed by Attach.
func (t *Tap) Detach(el *html.Node, typ string, l *dom.Listener) {
	key := binding{el: el, typ: typ, l: l}
	s, ok := t.bindings[key]
	if !ok {
		return
	}
	t.doc.RemoveEventListener(el, TypeTouchStart, s.start)
	t.doc.RemoveEventListener(el, TypeTouchEnd, s.end)
	delete(t.bindings, key)
}

// position reads numeric "x" and "y" detail values.
func position(e *dom.Event) (x, y float64, ok bool) {
	x, okX := number(e.Detail["x"])
	y, okY := number(e.Detail["y"])
	return x, y, okX && okY
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
