// Package delegate implements delegated DOM event dispatch.
//
// A Registry keeps one Host per element that has handlers. Each Host owns,
// per event type, an ordered handler list whose leading entries are
// delegated (scoped to a selector) and whose remaining entries are direct.
// The first handler registered for a type installs a single native
// listener on the element, or hands the type to the first Plugin that
// claims it. Every delivered event is matched against the list once:
// delegated handlers are collected walking from the event target up to
// the host, then direct handlers are appended, and the matches run in
// that order until one of them stops propagation.
//
// Example usage:
//
//	reg := delegate.NewRegistry(tree)
//	open := delegate.NewHandler(func(e *delegate.Event) error {
//	    fmt.Println("open", dom.Describe(e.CurrentTarget()))
//	    return delegate.ErrCancel // prevent default and stop propagation
//	})
//	if err := reg.On(list, "click", ".item", open); err != nil {
//	    return err
//	}
//	defer reg.Clear(list)
//
// A Registry is not safe for concurrent use. Registration, dispatch and
// disposal are expected to run on the single goroutine that owns the
// document.
package delegate
