package api

import (
	"fmt"
	"regexp"
	"time"
)

// identifierPattern constrains workflow names and step ids.
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// timeoutPattern constrains step timeout strings, e.g. "30s", "5m", "1h", "2d".
var timeoutPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// WorkflowDefinition describes a workflow as a set of named steps and the
// transitions between them. Definitions are immutable once produced by
// ParseDefinition or the builder; treat the exported fields as read-only.
type WorkflowDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Version     string         `json:"version,omitempty" yaml:"version,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []StepSpec     `json:"steps" yaml:"steps"`
	Transitions []Transition   `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// StepSpec describes a single named step.
//
// Action is an opaque reference resolved by the engine's action registry
// at execution time. A step without an action is a pure gate: it executes
// nothing and exists only for its transitions and preconditions.
type StepSpec struct {
	ID            string         `json:"id" yaml:"id"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Action        string         `json:"action,omitempty" yaml:"action,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Timeout       string         `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RetryAttempts int            `json:"retry_attempts,omitempty" yaml:"retry_attempts,omitempty"`
	Conditions    []string       `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Compensation  string         `json:"compensation,omitempty" yaml:"compensation,omitempty"`
}

// TimeoutDuration parses the step's advisory timeout. It returns zero
// when no timeout is declared. The executor does not enforce timeouts;
// the value is metadata for the action or host to honor.
func (s *StepSpec) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	m := timeoutPattern.FindStringSubmatch(s.Timeout)
	if m == nil {
		return 0, newDefinitionError("timeout", s.Timeout, `expected a value like "30s", "5m", "1h" or "2d"`)
	}
	var unit time.Duration
	switch m[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	var n int64
	if _, err := fmt.Sscanf(m[1], "%d", &n); err != nil {
		return 0, newDefinitionError("timeout", s.Timeout, "timeout magnitude is not a number")
	}
	return time.Duration(n) * unit, nil
}

// Transition is a directed edge between two steps. A transition without a
// condition is a sentinel that always fires; when several transitions
// leave the same step, the first match in declaration order wins.
type Transition struct {
	From      string         `json:"from" yaml:"from"`
	To        string         `json:"to" yaml:"to"`
	Condition string         `json:"condition,omitempty" yaml:"condition,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Step returns the spec with the given id.
func (d *WorkflowDefinition) Step(id string) (*StepSpec, bool) {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i], true
		}
	}
	return nil, false
}

// HasStep reports whether a step with the given id exists.
func (d *WorkflowDefinition) HasStep(id string) bool {
	_, ok := d.Step(id)
	return ok
}

// EntryStep returns the id of the step execution starts from: the first
// declared step that is not the target of any transition, or the first
// declared step when every step has an inbound edge.
func (d *WorkflowDefinition) EntryStep() string {
	if len(d.Steps) == 0 {
		return ""
	}
	targets := make(map[string]bool, len(d.Transitions))
	for _, t := range d.Transitions {
		targets[t.To] = true
	}
	for _, s := range d.Steps {
		if !targets[s.ID] {
			return s.ID
		}
	}
	return d.Steps[0].ID
}

// TransitionsFrom returns the outgoing transitions of a step in
// declaration order.
func (d *WorkflowDefinition) TransitionsFrom(id string) []Transition {
	var out []Transition
	for _, t := range d.Transitions {
		if t.From == id {
			out = append(out, t)
		}
	}
	return out
}

// NextDeclaredStep returns the id of the step declared immediately after
// the given one, or "" when it is the last step.
func (d *WorkflowDefinition) NextDeclaredStep(id string) string {
	for i := range d.Steps {
		if d.Steps[i].ID == id && i+1 < len(d.Steps) {
			return d.Steps[i+1].ID
		}
	}
	return ""
}

// Validate checks the structural integrity of the definition. It returns
// an *InvalidDefinitionError describing the first violation found.
func (d *WorkflowDefinition) Validate() error {
	if d.Name == "" {
		return newDefinitionError("name", nil, "workflow name is required")
	}
	if !identifierPattern.MatchString(d.Name) {
		return newDefinitionError("name", d.Name, "name must start with a letter and contain only letters, digits, '_' or '-'")
	}
	if len(d.Steps) == 0 {
		return newDefinitionError("steps", nil, "workflow must declare at least one step")
	}

	seen := make(map[string]bool, len(d.Steps))
	for i := range d.Steps {
		step := &d.Steps[i]
		if step.ID == "" {
			return newDefinitionError("steps", nil, fmt.Sprintf("step at position %d has no id", i))
		}
		if !identifierPattern.MatchString(step.ID) {
			return newDefinitionError("steps", step.ID, "step id must start with a letter and contain only letters, digits, '_' or '-'")
		}
		if seen[step.ID] {
			return newDefinitionError("steps", step.ID, "duplicate step id; each step needs a unique id")
		}
		seen[step.ID] = true

		if step.RetryAttempts < 0 {
			return newDefinitionError("retry_attempts", step.RetryAttempts,
				fmt.Sprintf("step %q: retry attempts must be >= 0", step.ID))
		}
		if _, err := step.TimeoutDuration(); err != nil {
			return err
		}
		for _, cond := range step.Conditions {
			if cond == "" {
				return newDefinitionError("conditions", nil,
					fmt.Sprintf("step %q: precondition expressions must be non-empty", step.ID))
			}
		}
	}

	for i, t := range d.Transitions {
		if t.From == "" || t.To == "" {
			return newDefinitionError("transitions", nil,
				fmt.Sprintf("transition at position %d must declare both 'from' and 'to'", i))
		}
		if !seen[t.From] {
			return newDefinitionError("transitions", t.From,
				fmt.Sprintf("transition %q -> %q references unknown step %q", t.From, t.To, t.From))
		}
		if !seen[t.To] {
			return newDefinitionError("transitions", t.To,
				fmt.Sprintf("transition %q -> %q references unknown step %q", t.From, t.To, t.To))
		}
	}

	return nil
}

// clone returns a deep copy so callers cannot mutate a shared definition.
func (d *WorkflowDefinition) clone() *WorkflowDefinition {
	out := &WorkflowDefinition{
		Name:        d.Name,
		Version:     d.Version,
		Description: d.Description,
		Metadata:    cloneMap(d.Metadata),
	}
	if d.Steps != nil {
		out.Steps = make([]StepSpec, len(d.Steps))
		for i, s := range d.Steps {
			cs := s
			cs.Parameters = cloneMap(s.Parameters)
			if s.Conditions != nil {
				cs.Conditions = append([]string(nil), s.Conditions...)
			}
			out.Steps[i] = cs
		}
	}
	if d.Transitions != nil {
		out.Transitions = make([]Transition, len(d.Transitions))
		for i, t := range d.Transitions {
			ct := t
			ct.Metadata = cloneMap(t.Metadata)
			out.Transitions[i] = ct
		}
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch tv := v.(type) {
		case map[string]any:
			out[k] = cloneMap(tv)
		case []any:
			cp := make([]any, len(tv))
			for i, e := range tv {
				if em, ok := e.(map[string]any); ok {
					cp[i] = cloneMap(em)
				} else {
					cp[i] = e
				}
			}
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}
