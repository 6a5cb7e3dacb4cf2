// Package gesture provides event-type plugins for the delegate registry.
//
// Plugins translate logical event types into the native events that
// produce them. Tap synthesises "tap" from a touchstart/touchend pair on
// the same target; Alias renames native types such as "mousedown" to
// application names such as "press".
package gesture
