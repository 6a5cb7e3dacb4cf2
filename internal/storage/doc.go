// Package storage provides JSON-based persistence for trace snapshots.
//
// Each scenario gets its own snapshot file (trace_NAME.json) in the data
// directory, so a later run of the same scenario can be compared against
// it. The default storage location is ~/.local/share/domevents/.
package storage
