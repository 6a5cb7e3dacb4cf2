// Package cli implements the command-line interface for domevents.
//
// The cli package provides the Cobra-based CLI that loads a page and a
// scenario, drives the delegated event registry through the scenario's
// steps and reports every handler invocation as text or JSON. Traces are
// stored per scenario, and --compare exits with code 2 when the trace
// differs from the previous run. Flags can also be set through DOMEVENTS_*
// environment variables or a config file.
package cli
