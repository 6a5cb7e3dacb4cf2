package delegate

import (
	"errors"
	"testing"

	"golang.org/x/net/html"

	"github.com/pfrederiksen/domevents/internal/dom"
)

func TestDispatch_DelegatedThenDirect(t *testing.T) {
	h := newHarness(t)
	h.on(h.host, "click", ".box", h.recorder("box"))
	h.on(h.host, "click", "", h.recorder("host"))

	h.fire(h.inner, "click")
	h.expectCalls("box@div.box", "host@div#host")

	// disposal removes both
	h.reg.Clear(h.host)
	h.fire(h.inner, "click")
	h.expectCalls()
}

func TestDispatch_RegistrationOrder(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"first", "second", "third"} {
		h.on(h.host, "click", ".box", h.recorder(name))
	}

	h.fire(h.inner, "click")
	h.expectCalls("first@div.box", "second@div.box", "third@div.box")
}

func TestDispatch_LevelsBeforeRegistrationOrder(t *testing.T) {
	h := newHarness(t)
	h.on(h.host, "click", ".box", h.recorder("box"))
	h.on(h.host, "click", "div", h.recorder("div"))

	h.fire(h.inner, "click")
	// inner level first, then its .box ancestor; handlers in registration
	// order within each level
	h.expectCalls("div@div.inner", "box@div.box", "div@div.box")
}

func TestDispatch_TargetIsHost(t *testing.T) {
	h := newHarness(t)
	h.on(h.host, "click", "div", h.recorder("div"))
	h.on(h.host, "click", "", h.recorder("host"))

	h.fire(h.host, "click")
	h.expectCalls("host@div#host")
}

func TestDispatch_NonMatchingTarget(t *testing.T) {
	h := newHarness(t)
	note := h.tree.First(".note")
	h.on(h.host, "click", ".box", h.recorder("box"))

	h.fire(note, "click")
	h.expectCalls()
}

func TestDispatch_SelectorScopedToHost(t *testing.T) {
	h := newHarness(t)
	// #outer is above the host, but the query still walks its ancestry
	h.on(h.host, "click", "#outer .inner", h.recorder("scoped"))
	// the host itself is never part of its own query
	h.on(h.host, "click", "#host", h.recorder("self"))

	h.fire(h.inner, "click")
	h.expectCalls("scoped@div.inner")
}

func TestDispatch_StopPropagation(t *testing.T) {
	tests := []struct {
		name        string
		handler     HandlerFunc
		wantDefault bool
	}{
		{
			name: "explicit stop",
			handler: func(e *Event) error {
				e.StopPropagation()
				return nil
			},
			wantDefault: false,
		},
		{
			name: "cancel sentinel",
			handler: func(e *Event) error {
				return ErrCancel
			},
			wantDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			outerCalls := 0
			h.tree.AddEventListener(h.outer, "click", dom.NewListener(func(*dom.Event) {
				outerCalls++
			}))

			h.on(h.host, "click", ".inner", NamedHandler("stopper", func(e *Event) error {
				h.calls = append(h.calls, "stopper")
				return tt.handler(e)
			}))
			h.on(h.host, "click", ".box", h.recorder("box"))
			h.on(h.host, "click", "", h.recorder("host"))

			native := h.fire(h.inner, "click")
			if len(h.calls) != 1 || h.calls[0] != "stopper" {
				t.Errorf("calls = %v, want [stopper]", h.calls)
			}
			if !native.PropagationStopped() {
				t.Error("native propagation not stopped")
			}
			if native.DefaultPrevented() != tt.wantDefault {
				t.Errorf("DefaultPrevented() = %v, want %v", native.DefaultPrevented(), tt.wantDefault)
			}
			if outerCalls != 0 {
				t.Errorf("ancestor listener ran %d times, want 0", outerCalls)
			}
			if len(h.errs) != 0 {
				t.Errorf("cancellation reported as failure: %v", h.errs)
			}
		})
	}
}

func TestDispatch_WrappedCancel(t *testing.T) {
	h := newHarness(t)
	h.on(h.host, "click", "", NewHandler(func(e *Event) error {
		return errors.Join(errors.New("context"), ErrCancel)
	}))
	h.on(h.host, "click", "", h.recorder("after"))

	native := h.fire(h.box, "click")
	h.expectCalls()
	if !native.DefaultPrevented() {
		t.Error("wrapped ErrCancel should prevent default")
	}
}

func TestDispatch_EventView(t *testing.T) {
	h := newHarness(t)
	var seen []*Event
	h.on(h.host, "click", ".box", NewHandler(func(e *Event) error {
		seen = append(seen, e)
		if e.Type() != "click" {
			t.Errorf("Type() = %q", e.Type())
		}
		if e.Target() != h.inner {
			t.Errorf("Target() = %s, want inner", dom.Describe(e.Target()))
		}
		if e.CurrentTarget() != h.box {
			t.Errorf("CurrentTarget() = %s, want box", dom.Describe(e.CurrentTarget()))
		}
		if e.Host() != h.host {
			t.Errorf("Host() = %s, want host", dom.Describe(e.Host()))
		}
		if v, ok := e.Detail("x"); !ok || v != 10 {
			t.Errorf("Detail(x) = %v, %v", v, ok)
		}
		e.PreventDefault()
		return nil
	}))
	h.on(h.host, "click", "", NewHandler(func(e *Event) error {
		seen = append(seen, e)
		if !e.IsDefaultPrevented() {
			t.Error("IsDefaultPrevented() = false in later handler")
		}
		if e.IsPropagationStopped() {
			t.Error("IsPropagationStopped() = true without a stop")
		}
		if e.CurrentTarget() != h.host {
			t.Errorf("CurrentTarget() = %s, want host", dom.Describe(e.CurrentTarget()))
		}
		return nil
	}))

	native := h.tree.Dispatch(h.inner, "click", map[string]any{"x": 10})
	if len(seen) != 2 {
		t.Fatalf("handlers ran %d times, want 2", len(seen))
	}
	if seen[0] != seen[1] {
		t.Error("each dispatch should wrap the native event exactly once")
	}
	if seen[0].Native() != native {
		t.Error("Native() should return the delivered event")
	}
}

func TestDispatch_MutationDuringDispatch(t *testing.T) {
	h := newHarness(t)
	late := h.recorder("late")
	second := h.recorder("second")

	h.on(h.host, "click", "", NamedHandler("first", func(e *Event) error {
		h.calls = append(h.calls, "first")
		_ = h.reg.Off(h.host, "click", "", second)
		return h.reg.On(h.host, "click", ".box", late)
	}))
	h.on(h.host, "click", "", second)

	h.fire(h.inner, "click")
	h.expectCalls("first", "second@div#host")

	h.fire(h.inner, "click")
	if len(h.calls) < 2 || h.calls[0] != "late@div.box" || h.calls[1] != "first" {
		t.Errorf("calls = %v, want late then first", h.calls)
	}
}

func TestDispatch_ClearDuringDispatch(t *testing.T) {
	h := newHarness(t)
	h.on(h.host, "click", "", NamedHandler("clear", func(e *Event) error {
		h.calls = append(h.calls, "clear")
		h.reg.Clear(h.host)
		return nil
	}))
	h.on(h.host, "click", "", h.recorder("after"))

	h.fire(h.box, "click")
	h.expectCalls("clear", "after@div#host")

	h.fire(h.box, "click")
	h.expectCalls()
}

func TestDispatch_FailureIsolation(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("boom")

	h.on(h.host, "click", ".box", NamedHandler("failing", func(e *Event) error {
		return boom
	}))
	h.on(h.host, "click", ".box", NamedHandler("panicking", func(e *Event) error {
		panic("kaboom")
	}))
	h.on(h.host, "click", "", h.recorder("survivor"))

	h.fire(h.inner, "click")
	h.expectCalls("survivor@div#host")

	if len(h.errs) != 2 {
		t.Fatalf("reported errors = %d, want 2", len(h.errs))
	}

	var herr *HandlerError
	if !errors.As(h.errs[0], &herr) {
		t.Fatalf("errs[0] = %T, want *HandlerError", h.errs[0])
	}
	if !errors.Is(herr, boom) || herr.Selector != ".box" || herr.Handler != "failing" || herr.Type != "click" {
		t.Errorf("unexpected HandlerError: %+v", herr)
	}

	var perr *PanicError
	if !errors.As(h.errs[1], &perr) {
		t.Fatalf("errs[1] = %T, want *PanicError", h.errs[1])
	}
	if perr.Value != "kaboom" || perr.Stack == "" {
		t.Errorf("unexpected PanicError: value %v, stack %d bytes", perr.Value, len(perr.Stack))
	}

	if got := h.reg.Metrics().Counter("dispatch.errors"); got != 2 {
		t.Errorf("dispatch.errors = %d, want 2", got)
	}
	if got := h.reg.Metrics().Counter("dispatch.invocations"); got != 3 {
		t.Errorf("dispatch.invocations = %d, want 3", got)
	}
}

func TestOne_FiresOnce(t *testing.T) {
	h := newHarness(t)
	count := 0
	fn := NewHandler(func(e *Event) error {
		count++
		return nil
	})

	if err := h.reg.One(h.host, "click", "", fn); err != nil {
		t.Fatalf("One() error = %v", err)
	}
	h.fire(h.box, "click")
	h.fire(h.box, "click")

	if count != 1 {
		t.Errorf("handler ran %d times, want 1", count)
	}
	if got := h.tree.ListenerCount(h.host, "click"); got != 0 {
		t.Errorf("native listeners = %d after one-shot fired, want 0", got)
	}
}

func TestOne_MultipleLevelsInOneDispatch(t *testing.T) {
	h := newHarness(t)
	var targets []*html.Node
	fn := NewHandler(func(e *Event) error {
		targets = append(targets, e.CurrentTarget())
		return nil
	})

	if err := h.reg.One(h.host, "click", "div", fn); err != nil {
		t.Fatalf("One() error = %v", err)
	}
	h.fire(h.inner, "click")

	if len(targets) != 1 || targets[0] != h.inner {
		t.Errorf("one-shot ran for %d targets, want only the innermost", len(targets))
	}
}

func TestOne_RemovedEvenWhenHandlerPanics(t *testing.T) {
	h := newHarness(t)
	count := 0
	fn := NewHandler(func(e *Event) error {
		count++
		panic("first call fails")
	})

	if err := h.reg.One(h.host, "click", ".box", fn); err != nil {
		t.Fatalf("One() error = %v", err)
	}
	h.fire(h.inner, "click")
	h.fire(h.inner, "click")

	if count != 1 {
		t.Errorf("handler ran %d times, want 1", count)
	}
	if len(h.errs) != 1 {
		t.Errorf("reported errors = %d, want 1", len(h.errs))
	}
}

func TestOne_ReentrantDispatch(t *testing.T) {
	h := newHarness(t)
	count := 0
	fn := NewHandler(func(e *Event) error {
		count++
		if count == 1 {
			h.tree.Dispatch(h.box, "click", nil)
		}
		return nil
	})

	if err := h.reg.One(h.host, "click", "", fn); err != nil {
		t.Fatalf("One() error = %v", err)
	}
	h.fire(h.box, "click")

	if count != 1 {
		t.Errorf("handler ran %d times, want 1", count)
	}
}

func TestOne_CancelledWithOriginalHandler(t *testing.T) {
	h := newHarness(t)
	fn := h.recorder("once")

	if err := h.reg.One(h.host, "click", ".box", fn); err != nil {
		t.Fatalf("One() error = %v", err)
	}
	if err := h.reg.Off(h.host, "click", ".box", fn); err != nil {
		t.Fatalf("Off() error = %v", err)
	}

	h.fire(h.inner, "click")
	h.expectCalls()
}

func TestOne_OffPrefersPlainRegistration(t *testing.T) {
	h := newHarness(t)
	fn := h.recorder("fn")

	if err := h.reg.One(h.host, "click", ".box", fn); err != nil {
		t.Fatalf("One() error = %v", err)
	}
	h.on(h.host, "click", ".box", fn)
	if err := h.reg.Off(h.host, "click", ".box", fn); err != nil {
		t.Fatalf("Off() error = %v", err)
	}

	h.fire(h.inner, "click")
	h.expectCalls("fn@div.box")

	h.fire(h.inner, "click")
	h.expectCalls()
}

func TestOne_OffFallsBackToWrapper(t *testing.T) {
	h := newHarness(t)
	fn := h.recorder("fn")

	h.on(h.host, "click", "", fn)
	if err := h.reg.One(h.host, "click", ".box", fn); err != nil {
		t.Fatalf("One() error = %v", err)
	}
	// different selector: only the one-shot registration can match
	if err := h.reg.Off(h.host, "click", ".box", fn); err != nil {
		t.Fatalf("Off() error = %v", err)
	}

	h.fire(h.inner, "click")
	h.expectCalls("fn@div#host")
}

func TestOne_InvalidHandler(t *testing.T) {
	h := newHarness(t)
	if err := h.reg.One(h.host, "click", "", nil); !errors.Is(err, ErrInvalidHandler) {
		t.Errorf("One(nil) error = %v, want ErrInvalidHandler", err)
	}
}

func TestErrors_Messages(t *testing.T) {
	herr := &HandlerError{Host: 3, Type: "click", Selector: ".box", Handler: "open", Err: errors.New("boom")}
	if got, want := herr.Error(), "handler open[.box] failed on host 3 (click): boom"; got != want {
		t.Errorf("HandlerError.Error() = %q, want %q", got, want)
	}

	perr := &PanicError{Host: 1, Type: "tap", Value: "oops"}
	if got, want := perr.Error(), "handler <anonymous> panicked on host 1 (tap): oops"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
	if perr.Unwrap() != nil {
		t.Error("Unwrap() of non-error panic value should be nil")
	}

	inner := errors.New("inner")
	if !errors.Is(&PanicError{Value: inner}, inner) {
		t.Error("PanicError should unwrap error values")
	}
}
