package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/domevents/internal/trace"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	RanAt           time.Time              `json:"ran_at"`
	RunID           string                 `json:"run_id"`
	Scenario        string                 `json:"scenario"`
	Page            string                 `json:"page"`
	Steps           int                    `json:"steps"`
	Invocations     []*trace.Record        `json:"invocations"`
	InvocationCount int                    `json:"invocation_count"`
	Failures        []string               `json:"failures,omitempty"`
	Compared        bool                   `json:"compared"`
	Added           []*trace.Record        `json:"added,omitempty"`
	Removed         []*trace.Record        `json:"removed,omitempty"`
	Metrics         map[string]interface{} `json:"metrics,omitempty"`
	Sort            SortOrder              `json:"-"`
}

// Changed reports whether a comparison found differences.
func (r *OutputResult) Changed() bool {
	return r.Compared && (len(r.Added) > 0 || len(r.Removed) > 0)
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	fmt.Fprintf(w, "Scenario %s on %s (%d steps)\n", result.Scenario, result.Page, result.Steps)

	if result.InvocationCount == 0 {
		fmt.Fprintln(w, "No handlers invoked.")
	} else if result.Sort == SortBySeq || result.Sort == "" {
		// Group by step, in invocation order
		step := ""
		for i, rec := range result.Invocations {
			if i == 0 || rec.Step != step {
				step = rec.Step
				fmt.Fprintf(w, "\n%s:\n", step)
			}
			writeRecord(w, "  ", rec, verbose)
		}
	} else {
		fmt.Fprintln(w)
		for _, rec := range result.Invocations {
			fmt.Fprintf(w, "%s: ", rec.Step)
			writeRecord(w, "", rec, verbose)
		}
	}

	if len(result.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures (%d):\n", len(result.Failures))
		for _, f := range result.Failures {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	if result.Compared {
		if !result.Changed() {
			fmt.Fprintln(w, "\nNo changes since last run.")
		} else {
			fmt.Fprintf(w, "\nChanges since last run (%d added, %d removed):\n", len(result.Added), len(result.Removed))
			for _, rec := range result.Added {
				fmt.Fprintf(w, "  + %s\n", rec)
			}
			for _, rec := range result.Removed {
				fmt.Fprintf(w, "  - %s\n", rec)
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d invocations, %d failures\n", result.InvocationCount, len(result.Failures))
	return nil
}

func writeRecord(w io.Writer, indent string, rec *trace.Record, verbose bool) {
	fmt.Fprintf(w, "%s%s %s this=%s target=%s", indent, rec.Handler, rec.Type, rec.This, rec.Target)
	if rec.Error != "" {
		fmt.Fprintf(w, " (%s)", rec.Error)
	}
	fmt.Fprintln(w)
	if verbose {
		fmt.Fprintf(w, "%s     ID: %s\n", indent, rec.ID)
	}
}
