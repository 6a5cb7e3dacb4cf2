// Package trace records handler invocations produced by a scenario run.
//
// Every record gets a deterministic SHA1-based ID built from what happened
// (step, handler, event type, matched element and target), so traces from
// separate runs can be compared with Diff and stored as snapshots.
package trace
