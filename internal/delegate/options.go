package delegate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pfrederiksen/domevents/internal/logger"
)

// TypePolicy decides what registration does with an empty or malformed
// event type.
type TypePolicy int

const (
	// TypePolicyIgnore treats the registration as a no-op.
	TypePolicyIgnore TypePolicy = iota

	// TypePolicyReject fails the registration with ErrInvalidType.
	TypePolicyReject
)

// String returns the policy name.
func (p TypePolicy) String() string {
	switch p {
	case TypePolicyIgnore:
		return "ignore"
	case TypePolicyReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseTypePolicy converts "ignore" or "reject" into a TypePolicy.
func ParseTypePolicy(s string) (TypePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return TypePolicyIgnore, nil
	case "reject":
		return TypePolicyReject, nil
	default:
		return TypePolicyIgnore, fmt.Errorf("invalid type policy: %s (must be 'ignore' or 'reject')", s)
	}
}

// ValidType reports whether typ is usable as an event type: non-empty
// and free of whitespace.
func ValidType(typ string) bool {
	return typ != "" && !strings.ContainsFunc(typ, unicode.IsSpace)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for lifecycle and failure logging.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics tracker. By default each registry has its own.
func WithMetrics(m *logger.Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithErrorHandler sets the function that receives handler failures
// (*HandlerError and *PanicError). The default logs them.
func WithErrorHandler(fn func(error)) Option {
	return func(r *Registry) {
		r.onError = fn
	}
}

// WithTypePolicy sets the policy for empty or malformed event types.
func WithTypePolicy(p TypePolicy) Option {
	return func(r *Registry) {
		r.policy = p
	}
}
