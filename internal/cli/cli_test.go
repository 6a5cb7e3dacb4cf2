package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := ExecuteArgs(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_RunText(t *testing.T) {
	dataDir := t.TempDir()

	code, out, errOut := execute(t, "run",
		"--page", fixtures+"todos.html",
		"--scenario", fixtures+"delegation.hcl",
		"--data-dir", dataDir,
	)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitSuccess, errOut)
	}

	for _, want := range []string{
		"Scenario delegation on " + fixtures + "todos.html (8 steps)",
		"\nclick-inner:\n  inner click this=div.inner target=div.inner\n",
		"\nclick-inner-again:\n  box click this=div.box target=div.inner\n",
		"Total: 5 invocations, 0 failures",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := os.Stat(filepath.Join(dataDir, "trace_delegation.json")); err != nil {
		t.Errorf("trace snapshot not saved: %v", err)
	}
}

func TestExecute_RunJSON(t *testing.T) {
	code, out, errOut := execute(t, "run",
		"--page", fixtures+"todos.html",
		"--scenario", fixtures+"todos.json",
		"--data-dir", t.TempDir(),
		"--format", "json",
		"--verbose",
	)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitSuccess, errOut)
	}

	var result struct {
		Scenario        string           `json:"scenario"`
		RunID           string           `json:"run_id"`
		InvocationCount int              `json:"invocation_count"`
		Invocations     []map[string]any `json:"invocations"`
		Metrics         map[string]any   `json:"metrics"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.Scenario != "todos" || result.RunID == "" {
		t.Errorf("scenario/run id = %q/%q", result.Scenario, result.RunID)
	}
	if result.InvocationCount != 2 || len(result.Invocations) != 2 {
		t.Fatalf("invocations = %d, want 2", result.InvocationCount)
	}
	if result.Invocations[1]["handler"] != "select" || result.Invocations[1]["type"] != "tap" {
		t.Errorf("second invocation = %v, want select tap", result.Invocations[1])
	}
	if result.Metrics == nil {
		t.Error("verbose JSON output should include metrics")
	}
}

func TestExecute_Compare(t *testing.T) {
	dataDir := t.TempDir()
	args := []string{"run",
		"--page", fixtures + "todos.html",
		"--scenario", fixtures + "delegation.hcl",
		"--data-dir", dataDir,
		"--compare",
	}

	if code, out, _ := execute(t, args...); code != ExitSuccess || strings.Contains(out, "since last run") {
		t.Fatalf("first run: exit code = %d, want %d without comparison\n%s", code, ExitSuccess, out)
	}

	code, out, _ := execute(t, args...)
	if code != ExitSuccess || !strings.Contains(out, "No changes since last run.") {
		t.Fatalf("second run: exit code = %d, want %d\n%s", code, ExitSuccess, out)
	}

	// same scenario name, without the off step
	src, err := os.ReadFile(fixtures + "delegation.hcl")
	if err != nil {
		t.Fatal(err)
	}
	text := string(src)
	start := strings.Index(text, `step "remove-inner"`)
	end := strings.Index(text, `step "click-inner-again"`)
	changed := filepath.Join(t.TempDir(), "delegation.hcl")
	if err := os.WriteFile(changed, []byte(text[:start]+text[end:]), 0644); err != nil {
		t.Fatal(err)
	}

	code, out, _ = execute(t, "run",
		"--page", fixtures+"todos.html",
		"--scenario", changed,
		"--data-dir", dataDir,
		"--compare",
	)
	if code != ExitTraceChanged {
		t.Fatalf("changed run: exit code = %d, want %d\n%s", code, ExitTraceChanged, out)
	}
	if !strings.Contains(out, "3 added, 2 removed") ||
		!strings.Contains(out, "+ click-inner-again: inner click this=div.inner target=div.inner") ||
		!strings.Contains(out, "- click-inner-again: box click this=div.box target=div.inner") {
		t.Errorf("unexpected diff output:\n%s", out)
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing page",
			args:    []string{"run", "--scenario", fixtures + "delegation.hcl"},
			wantErr: "--page is required",
		},
		{
			name:    "missing scenario",
			args:    []string{"run", "--page", fixtures + "todos.html"},
			wantErr: "--scenario is required",
		},
		{
			name:    "invalid format",
			args:    []string{"run", "--page", fixtures + "todos.html", "--scenario", fixtures + "delegation.hcl", "--format", "xml"},
			wantErr: "invalid format: xml",
		},
		{
			name:    "invalid type policy",
			args:    []string{"run", "--page", fixtures + "todos.html", "--scenario", fixtures + "delegation.hcl", "--type-policy", "strict"},
			wantErr: "invalid type policy",
		},
		{
			name:    "invalid log level",
			args:    []string{"run", "--page", fixtures + "todos.html", "--scenario", fixtures + "delegation.hcl", "--log-level", "loud"},
			wantErr: "unknown log level",
		},
		{
			name:    "missing page file",
			args:    []string{"run", "--page", fixtures + "nope.html", "--scenario", fixtures + "delegation.hcl"},
			wantErr: "loading page",
		},
		{
			name:    "unknown flag",
			args:    []string{"run", "--bogus"},
			wantErr: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--data-dir", t.TempDir())
			code, _, errOut := execute(t, args...)
			if code != ExitError {
				t.Errorf("exit code = %d, want %d", code, ExitError)
			}
			if !strings.Contains(errOut, tt.wantErr) {
				t.Errorf("stderr = %q, want containing %q", errOut, tt.wantErr)
			}
		})
	}
}

func TestExecute_EnvAndConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOMEVENTS_PAGE", fixtures+"todos.html")
	t.Setenv("DOMEVENTS_DATA_DIR", filepath.Join(dir, "data"))

	cfg := filepath.Join(dir, "domevents.yaml")
	if err := os.WriteFile(cfg, []byte("format: json\nsort: handler\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := execute(t, "run", "--scenario", fixtures+"delegation.hcl", "--config", cfg)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitSuccess, errOut)
	}

	var result OutputResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("config file format not applied: %v\n%s", err, out)
	}
	var handlers []string
	for _, rec := range result.Invocations {
		handlers = append(handlers, rec.Handler)
	}
	if got, want := strings.Join(handlers, ","), "box,box,direct,direct,inner"; got != want {
		t.Errorf("handlers = %s, want %s (sorted by handler)", got, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "trace_delegation.json")); err != nil {
		t.Errorf("DOMEVENTS_DATA_DIR not applied: %v", err)
	}
}

func TestExecute_Snapshots(t *testing.T) {
	dataDir := t.TempDir()

	code, out, _ := execute(t, "snapshots", "--data-dir", dataDir)
	if code != ExitSuccess || !strings.Contains(out, "No stored traces.") {
		t.Fatalf("empty snapshots: code %d, output %q", code, out)
	}

	for _, sc := range []string{"delegation.hcl", "todos.json"} {
		if code, _, errOut := execute(t, "run", "--page", fixtures+"todos.html", "--scenario", fixtures+sc, "--data-dir", dataDir); code != ExitSuccess {
			t.Fatalf("run %s: code %d (%s)", sc, code, errOut)
		}
	}

	_, out, _ = execute(t, "snapshots", "--data-dir", dataDir)
	if out != "delegation\ntodos\n" {
		t.Errorf("snapshots output = %q", out)
	}
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, &OutputResult{}, OutputFormat("xml"), false); err == nil {
		t.Error("WriteOutput() with unknown format should fail")
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOrder
		wantErr bool
	}{
		{"", SortBySeq, false},
		{"seq", SortBySeq, false},
		{"Handler", SortByHandler, false},
		{"element", SortByElement, false},
		{"date", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortOrder(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %q, %v", tt.in, got, err)
		}
	}
}
