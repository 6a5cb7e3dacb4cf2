package delegate

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event layer.
var (
	// ErrInvalidHandler is returned when a nil handler, or a handler without a
	// function, is registered.
	ErrInvalidHandler = errors.New("invalid handler")

	// ErrInvalidType is returned for empty or malformed event types when the
	// registry uses TypePolicyReject.
	ErrInvalidType = errors.New("invalid event type")

	// ErrInvalidSelector is returned when a delegation selector does not compile.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrNilElement is returned when a registration targets a nil element.
	ErrNilElement = errors.New("element cannot be nil")

	// ErrCancel is returned by a handler to prevent the default action and
	// stop propagation. It is not reported as a failure.
	ErrCancel = errors.New("event cancelled")
)

// HandlerError wraps an error returned by a handler during dispatch.
type HandlerError struct {
	// Host is the identity of the host that dispatched the event.
	Host uint64

	// Type is the event type being dispatched.
	Type string

	// Selector is the delegation selector, empty for direct handlers.
	Selector string

	// Handler is the handler name, if it has one.
	Handler string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s failed on host %d (%s): %v", e.label(), e.Host, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

func (e *HandlerError) label() string {
	return handlerLabel(e.Handler, e.Selector)
}

// PanicError records a panic raised by a handler during dispatch.
type PanicError struct {
	Host     uint64
	Type     string
	Selector string
	Handler  string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %s panicked on host %d (%s): %v",
		handlerLabel(e.Handler, e.Selector), e.Host, e.Type, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func handlerLabel(name, selector string) string {
	if name == "" {
		name = "<anonymous>"
	}
	if selector == "" {
		return name
	}
	return name + "[" + selector + "]"
}
