package api

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// ParseDefinition accepts a workflow definition in any of its supported
// shapes and returns a validated, immutable WorkflowDefinition:
//
//   - *WorkflowDefinition / WorkflowDefinition (validated and copied)
//   - map[string]any (the native-map document form)
//   - []byte / string (a JSON-serialized document)
//
// Steps may be supplied either as an array of step objects carrying an
// "id" field (declaration order preserved) or as an id-keyed map (ordered
// by sorted id for determinism). Any violation is reported as an
// *InvalidDefinitionError naming the offending field.
func ParseDefinition(raw any) (*WorkflowDefinition, error) {
	switch v := raw.(type) {
	case *WorkflowDefinition:
		if v == nil {
			return nil, newDefinitionError("definition", nil, "definition is nil")
		}
		if err := v.Validate(); err != nil {
			return nil, err
		}
		return v.clone(), nil
	case WorkflowDefinition:
		if err := v.Validate(); err != nil {
			return nil, err
		}
		return v.clone(), nil
	case map[string]any:
		return fromRawDefinition(v)
	case []byte:
		return parseJSONDefinition(v)
	case string:
		return parseJSONDefinition([]byte(v))
	default:
		return nil, newDefinitionError("definition", fmt.Sprintf("%T", raw),
			"expected a map, a JSON document or a WorkflowDefinition")
	}
}

// ParseDefinitionYAML parses the YAML form of the definition document.
func ParseDefinitionYAML(data []byte) (*WorkflowDefinition, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, newDefinitionError("definition", nil, "document is not valid YAML: "+err.Error())
	}
	if m == nil {
		return nil, newDefinitionError("definition", nil, "document is empty")
	}
	return fromRawDefinition(m)
}

func parseJSONDefinition(data []byte) (*WorkflowDefinition, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, newDefinitionError("definition", nil, "document is not valid JSON: "+err.Error())
	}
	return fromRawDefinition(m)
}

func fromRawDefinition(m map[string]any) (*WorkflowDefinition, error) {
	def := &WorkflowDefinition{}

	name, ok := asString(m["name"])
	if !ok || name == "" {
		return nil, newDefinitionError("name", m["name"], "workflow name is required and must be a string")
	}
	def.Name = name

	if v, present := m["version"]; present {
		ver, ok := asString(v)
		if !ok {
			return nil, newDefinitionError("version", v, "version must be a string")
		}
		def.Version = ver
	}

	if v, present := m["description"]; present {
		desc, ok := asString(v)
		if !ok {
			return nil, newDefinitionError("description", v, "description must be a string")
		}
		def.Description = desc
	}

	if v, present := m["metadata"]; present {
		meta, ok := v.(map[string]any)
		if !ok {
			return nil, newDefinitionError("metadata", v, "metadata must be a map")
		}
		def.Metadata = cloneMap(meta)
	}

	steps, err := normalizeSteps(m["steps"])
	if err != nil {
		return nil, err
	}
	def.Steps = steps

	if v, present := m["transitions"]; present {
		transitions, err := normalizeTransitions(v)
		if err != nil {
			return nil, err
		}
		def.Transitions = transitions
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// normalizeSteps rekeys the two accepted step collection shapes into an
// ordered []StepSpec.
func normalizeSteps(raw any) ([]StepSpec, error) {
	switch v := raw.(type) {
	case nil:
		return nil, newDefinitionError("steps", nil, "workflow must declare at least one step")
	case []any:
		if len(v) == 0 {
			return nil, newDefinitionError("steps", nil, "workflow must declare at least one step")
		}
		out := make([]StepSpec, 0, len(v))
		seen := make(map[string]bool, len(v))
		for i, item := range v {
			sm, ok := item.(map[string]any)
			if !ok {
				return nil, newDefinitionError("steps", item, fmt.Sprintf("step at position %d must be a map", i))
			}
			id, ok := asString(sm["id"])
			if !ok || id == "" {
				return nil, newDefinitionError("steps", nil, fmt.Sprintf("step at position %d is missing its 'id' field", i))
			}
			if seen[id] {
				return nil, newDefinitionError("steps", id, "duplicate step id; each step needs a unique id")
			}
			seen[id] = true
			spec, err := parseRawStep(id, sm)
			if err != nil {
				return nil, err
			}
			out = append(out, spec)
		}
		return out, nil
	case map[string]any:
		if len(v) == 0 {
			return nil, newDefinitionError("steps", nil, "workflow must declare at least one step")
		}
		ids := make([]string, 0, len(v))
		for id := range v {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out := make([]StepSpec, 0, len(ids))
		for _, id := range ids {
			sm, ok := v[id].(map[string]any)
			if !ok {
				return nil, newDefinitionError("steps", v[id], fmt.Sprintf("step %q must be a map", id))
			}
			if inner, present := sm["id"]; present {
				if innerID, _ := asString(inner); innerID != id {
					return nil, newDefinitionError("steps", inner,
						fmt.Sprintf("step keyed %q carries a conflicting id %v", id, inner))
				}
			}
			spec, err := parseRawStep(id, sm)
			if err != nil {
				return nil, err
			}
			out = append(out, spec)
		}
		return out, nil
	default:
		return nil, newDefinitionError("steps", fmt.Sprintf("%T", raw), "steps must be an array of step objects or an id-keyed map")
	}
}

func parseRawStep(id string, m map[string]any) (StepSpec, error) {
	spec := StepSpec{ID: id}

	if v, present := m["description"]; present {
		desc, ok := asString(v)
		if !ok {
			return spec, newDefinitionError("description", v, fmt.Sprintf("step %q: description must be a string", id))
		}
		spec.Description = desc
	}

	if v, present := m["action"]; present {
		action, ok := asString(v)
		if !ok {
			return spec, newDefinitionError("action", v, fmt.Sprintf("step %q: action must be a string", id))
		}
		if action == "" {
			return spec, newDefinitionError("action", v,
				fmt.Sprintf("step %q: action must be non-empty; omit the field for a pure gate step", id))
		}
		spec.Action = action
	}

	if v, present := m["parameters"]; present {
		params, ok := v.(map[string]any)
		if !ok {
			return spec, newDefinitionError("parameters", v, fmt.Sprintf("step %q: parameters must be a map", id))
		}
		spec.Parameters = cloneMap(params)
	}

	if v, present := m["timeout"]; present {
		timeout, ok := asString(v)
		if !ok {
			return spec, newDefinitionError("timeout", v,
				fmt.Sprintf("step %q: timeout must be a string like \"30s\"", id))
		}
		spec.Timeout = timeout
	}

	if v, present := m["retry_attempts"]; present {
		n, ok := asInt(v)
		if !ok || n < 0 {
			return spec, newDefinitionError("retry_attempts", v,
				fmt.Sprintf("step %q: retry attempts must be a non-negative integer", id))
		}
		spec.RetryAttempts = n
	}

	if v, present := m["conditions"]; present {
		conds, ok := asStringSlice(v)
		if !ok {
			return spec, newDefinitionError("conditions", v,
				fmt.Sprintf("step %q: conditions must be a list of expression strings", id))
		}
		for _, c := range conds {
			if c == "" {
				return spec, newDefinitionError("conditions", nil,
					fmt.Sprintf("step %q: precondition expressions must be non-empty", id))
			}
		}
		spec.Conditions = conds
	}

	if v, present := m["compensation"]; present {
		comp, ok := asString(v)
		if !ok || comp == "" {
			return spec, newDefinitionError("compensation", v,
				fmt.Sprintf("step %q: compensation must be a non-empty action reference", id))
		}
		spec.Compensation = comp
	}

	return spec, nil
}

func normalizeTransitions(raw any) ([]Transition, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, newDefinitionError("transitions", fmt.Sprintf("%T", raw), "transitions must be an array")
	}
	out := make([]Transition, 0, len(items))
	for i, item := range items {
		tm, ok := item.(map[string]any)
		if !ok {
			return nil, newDefinitionError("transitions", item, fmt.Sprintf("transition at position %d must be a map", i))
		}
		var t Transition
		from, ok := asString(tm["from"])
		if !ok || from == "" {
			return nil, newDefinitionError("transitions", tm["from"],
				fmt.Sprintf("transition at position %d: 'from' must be a non-empty step id", i))
		}
		to, ok := asString(tm["to"])
		if !ok || to == "" {
			return nil, newDefinitionError("transitions", tm["to"],
				fmt.Sprintf("transition at position %d: 'to' must be a non-empty step id", i))
		}
		t.From, t.To = from, to

		if v, present := tm["condition"]; present {
			cond, ok := asString(v)
			if !ok || cond == "" {
				return nil, newDefinitionError("condition", v,
					fmt.Sprintf("transition %q -> %q: condition must be a non-empty expression", from, to))
			}
			t.Condition = cond
		}
		if v, present := tm["metadata"]; present {
			meta, ok := v.(map[string]any)
			if !ok {
				return nil, newDefinitionError("metadata", v,
					fmt.Sprintf("transition %q -> %q: metadata must be a map", from, to))
			}
			t.Metadata = cloneMap(meta)
		}
		out = append(out, t)
	}
	return out, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...), true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
