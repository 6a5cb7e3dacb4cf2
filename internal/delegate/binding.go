package delegate

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Bindings maps binding keys to handlers. A key is "type" for a direct
// handler or "type:selector" for a delegated one, e.g. "click:.box".
type Bindings map[string]*Handler

// ParseBinding splits a binding key into event type and selector.
func ParseBinding(key string) (typ, selector string) {
	typ, selector, _ = strings.Cut(key, ":")
	return strings.TrimSpace(typ), strings.TrimSpace(selector)
}

// Bind registers every binding on el in key order. It stops at the first
// failure; bindings already registered stay registered.
func (r *Registry) Bind(el *html.Node, b Bindings) error {
	for _, key := range b.keys() {
		typ, selector := ParseBinding(key)
		if err := r.On(el, typ, selector, b[key]); err != nil {
			return fmt.Errorf("binding %q: %w", key, err)
		}
	}
	return nil
}

// Unbind removes every binding from el.
func (r *Registry) Unbind(el *html.Node, b Bindings) error {
	for _, key := range b.keys() {
		typ, selector := ParseBinding(key)
		if err := r.Off(el, typ, selector, b[key]); err != nil {
			return fmt.Errorf("unbinding %q: %w", key, err)
		}
	}
	return nil
}

func (b Bindings) keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
