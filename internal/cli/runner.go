package cli

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/net/html"

	"github.com/pfrederiksen/domevents/internal/delegate"
	"github.com/pfrederiksen/domevents/internal/dom"
	"github.com/pfrederiksen/domevents/internal/gesture"
	"github.com/pfrederiksen/domevents/internal/logger"
	"github.com/pfrederiksen/domevents/internal/scenario"
	"github.com/pfrederiksen/domevents/internal/trace"
)

// errHandlerFailed is returned by handlers declared with then = "fail".
var errHandlerFailed = errors.New("handler failed")

// Aliases maps the logical event types every run understands onto native ones.
var Aliases = map[string]string{
	"press":   "mousedown",
	"release": "mouseup",
}

// Runner applies scenario steps to a page through a delegate.Registry and
// records every handler invocation.
type Runner struct {
	tree     *dom.Tree
	reg      *delegate.Registry
	trace    *trace.Trace
	log      *logger.Logger
	handlers map[string]*delegate.Handler
	behavior map[string]string
	failures []error
	step     string
}

// NewRunner prepares a registry over tree with the tap and alias plugins
// registered.
func NewRunner(tree *dom.Tree, name string, policy delegate.TypePolicy, log *logger.Logger) (*Runner, error) {
	if log == nil {
		log = logger.Default()
	}
	r := &Runner{
		tree:     tree,
		trace:    trace.New(name),
		log:      log.With(logger.Fields{"scenario": name}),
		handlers: make(map[string]*delegate.Handler),
		behavior: make(map[string]string),
	}
	r.reg = delegate.NewRegistry(tree,
		delegate.WithLogger(r.log),
		delegate.WithTypePolicy(policy),
		delegate.WithErrorHandler(r.onError),
	)

	for _, p := range []delegate.Plugin{gesture.NewTap(tree), gesture.NewAlias(tree, Aliases)} {
		if err := r.reg.RegisterPlugin(p); err != nil {
			return nil, fmt.Errorf("registering plugin: %w", err)
		}
	}
	return r, nil
}

// Registry exposes the registry the runner drives.
func (r *Runner) Registry() *delegate.Registry {
	return r.reg
}

// Trace returns the invocations recorded so far.
func (r *Runner) Trace() *trace.Trace {
	return r.trace
}

// Failures returns the handler failures reported by the registry.
func (r *Runner) Failures() []error {
	return r.failures
}

// Run executes every step in order and disposes all hosts afterwards.
// It stops at the first step that cannot be applied.
func (r *Runner) Run(s *scenario.Scenario) error {
	defer r.reg.Close()

	start := time.Now()
	for _, st := range s.Steps {
		if err := r.Apply(st); err != nil {
			return err
		}
	}

	r.reg.Metrics().RecordTiming("scenario.duration", time.Since(start))
	r.log.Info("Scenario finished", logger.Fields{
		"steps":       len(s.Steps),
		"invocations": r.trace.Len(),
		"failures":    len(r.failures),
	})
	return nil
}

// Apply executes a single step.
func (r *Runner) Apply(st *scenario.Step) error {
	r.step = st.Name
	r.log.Debug("Applying step", logger.Fields{
		"step":   st.Name,
		"action": st.Action,
	})

	var err error
	switch st.Action {
	case scenario.ActionOn, scenario.ActionOne, scenario.ActionOff:
		err = r.register(st)
	case scenario.ActionClear:
		var host *html.Node
		if host, err = r.element(st.Host); err == nil {
			r.reg.Clear(host)
		}
	case scenario.ActionFire:
		var target *html.Node
		if target, err = r.element(st.Target); err == nil {
			r.tree.Dispatch(target, st.Type, st.DetailMap())
		}
	case scenario.ActionTap:
		var target *html.Node
		if target, err = r.element(st.Target); err == nil {
			r.tree.Dispatch(target, gesture.TypeTouchStart, st.DetailMap())
			r.tree.Dispatch(target, gesture.TypeTouchEnd, st.DetailMap())
		}
	default:
		err = fmt.Errorf("unknown action %q", st.Action)
	}

	if err != nil {
		return fmt.Errorf("step %q: %w", st.Name, err)
	}
	r.reg.Metrics().IncrCounter("scenario.steps")
	return nil
}

func (r *Runner) register(st *scenario.Step) error {
	host, err := r.element(st.Host)
	if err != nil {
		return err
	}

	h, err := r.handler(st)
	if err != nil {
		return err
	}

	switch st.Action {
	case scenario.ActionOne:
		return r.reg.One(host, st.Type, st.Selector, h)
	case scenario.ActionOff:
		return r.reg.Off(host, st.Type, st.Selector, h)
	default:
		return r.reg.On(host, st.Type, st.Selector, h)
	}
}

// handler returns the handler with the step's name, creating it on first
// use. A handler keeps the behavior it was declared with.
func (r *Runner) handler(st *scenario.Step) (*delegate.Handler, error) {
	if h, ok := r.handlers[st.Handler]; ok {
		if st.Then != scenario.BehaviorNone && st.Then != r.behavior[st.Handler] {
			return nil, fmt.Errorf("handler %q already declared with then = %q", st.Handler, r.behavior[st.Handler])
		}
		return h, nil
	}

	name, then := st.Handler, st.Then
	h := delegate.NamedHandler(name, func(e *delegate.Event) error {
		rec := trace.Record{
			Step:    r.step,
			Handler: name,
			Type:    e.Type(),
			This:    dom.Describe(e.CurrentTarget()),
			Target:  dom.Describe(e.Target()),
		}
		if then == scenario.BehaviorFail || then == scenario.BehaviorPanic {
			rec.Error = then
		}
		r.trace.Add(rec)

		switch then {
		case scenario.BehaviorStop:
			e.StopPropagation()
		case scenario.BehaviorCancel:
			return delegate.ErrCancel
		case scenario.BehaviorFail:
			return errHandlerFailed
		case scenario.BehaviorPanic:
			panic(fmt.Sprintf("handler %s panicked", name))
		}
		return nil
	})
	r.handlers[name] = h
	r.behavior[name] = then
	return h, nil
}

func (r *Runner) element(selector string) (*html.Node, error) {
	el := r.tree.First(selector)
	if el == nil {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	return el, nil
}

func (r *Runner) onError(err error) {
	r.failures = append(r.failures, err)
	r.log.Warn("Handler failed", logger.Fields{
		"step":  r.step,
		"error": err.Error(),
	})
}
