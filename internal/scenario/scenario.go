package scenario

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Step actions.
const (
	ActionOn    = "on"
	ActionOne   = "one"
	ActionOff   = "off"
	ActionClear = "clear"
	ActionFire  = "fire"
	ActionTap   = "tap"
)

// Handler behaviors, applied after the handler records its invocation.
const (
	BehaviorNone   = ""
	BehaviorStop   = "stop"
	BehaviorCancel = "cancel"
	BehaviorFail   = "fail"
	BehaviorPanic  = "panic"
)

// Scenario is a named, ordered list of steps.
type Scenario struct {
	Name  string
	Steps []*Step
}

// Step is one scenario instruction.
type Step struct {
	Name     string             `hcl:"name,label"`
	Action   string             `hcl:"action"`
	Host     string             `hcl:"host,optional"`
	Type     string             `hcl:"type,optional"`
	Selector string             `hcl:"selector,optional"`
	Target   string             `hcl:"target,optional"`
	Handler  string             `hcl:"handler,optional"`
	Then     string             `hcl:"then,optional"`
	Detail   map[string]float64 `hcl:"detail,optional"`
}

// hclScenarioFile is the top-level structure of a scenario file.
type hclScenarioFile struct {
	Steps []*Step `hcl:"step,block"`
}

// Load parses and validates the scenario file at path. Files ending in
// .json use the HCL JSON syntax; everything else is native HCL.
func Load(path string) (*Scenario, error) {
	parser := hclparse.NewParser()

	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		file, diags = parser.ParseJSONFile(path)
	} else {
		file, diags = parser.ParseHCLFile(path)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, diags)
	}

	return decode(file, nameFromPath(path))
}

// Parse decodes a scenario from memory. filename selects the syntax the
// same way Load does and names the scenario.
func Parse(src []byte, filename string) (*Scenario, error) {
	parser := hclparse.NewParser()

	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		file, diags = parser.ParseJSON(src, filename)
	} else {
		file, diags = parser.ParseHCL(src, filename)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", filename, diags)
	}

	return decode(file, nameFromPath(filename))
}

func decode(file *hcl.File, name string) (*Scenario, error) {
	var parsed hclScenarioFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", name, diags)
	}

	s := &Scenario{
		Name:  name,
		Steps: parsed.Steps,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Validate checks every step and reports all problems at once.
func (s *Scenario) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, step := range s.Steps {
		if seen[step.Name] {
			errs = append(errs, fmt.Errorf("step %q: duplicate name", step.Name))
		}
		seen[step.Name] = true

		if err := step.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks that the step carries the attributes its action needs.
// Registration steps may leave type empty; the registry's type policy
// decides what happens to them.
func (st *Step) Validate() error {
	var missing []string
	need := func(attr, value string) {
		if value == "" {
			missing = append(missing, attr)
		}
	}

	switch st.Action {
	case ActionOn, ActionOne, ActionOff:
		need("host", st.Host)
		need("handler", st.Handler)
	case ActionClear:
		need("host", st.Host)
	case ActionFire:
		need("target", st.Target)
		need("type", st.Type)
	case ActionTap:
		need("target", st.Target)
	default:
		return fmt.Errorf("step %q: unknown action %q", st.Name, st.Action)
	}

	if len(missing) > 0 {
		return fmt.Errorf("step %q: %s requires %s", st.Name, st.Action, strings.Join(missing, ", "))
	}

	switch st.Then {
	case BehaviorNone, BehaviorStop, BehaviorCancel, BehaviorFail, BehaviorPanic:
	default:
		return fmt.Errorf("step %q: unknown behavior %q", st.Name, st.Then)
	}
	if st.Then != BehaviorNone && st.Action != ActionOn && st.Action != ActionOne {
		return fmt.Errorf("step %q: then is only valid on on and one steps", st.Name)
	}
	return nil
}

// DetailMap converts the numeric detail block into an event detail map.
func (st *Step) DetailMap() map[string]any {
	if len(st.Detail) == 0 {
		return nil
	}
	detail := make(map[string]any, len(st.Detail))
	for k, v := range st.Detail {
		detail[k] = v
	}
	return detail
}
