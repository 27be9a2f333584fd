package api

import (
	"time"
)

// WorkflowContext is the immutable view of an execution handed to an
// action. Data is a snapshot of the instance's accumulated data at the
// moment the step started; Config holds the step's parameters with
// template placeholders already rendered against that snapshot.
//
// Contexts are value-semantic: With and WithData return modified copies
// and never touch the original, so an action can derive a local context
// without racing the executor.
type WorkflowContext struct {
	WorkflowID string
	StepID     string
	Data       map[string]any
	Config     map[string]any

	// Instance is an optional read-only back-reference for actions that
	// need lifecycle details (status, completed steps). May be nil.
	Instance *WorkflowInstance

	CreatedAt time.Time
}

// NewWorkflowContext builds a context over deep copies of data and config.
func NewWorkflowContext(workflowID, stepID string, data, config map[string]any) *WorkflowContext {
	return &WorkflowContext{
		WorkflowID: workflowID,
		StepID:     stepID,
		Data:       cloneMap(data),
		Config:     cloneMap(config),
		CreatedAt:  time.Now().UTC(),
	}
}

// Get resolves a dot-separated path against the data snapshot.
func (c *WorkflowContext) Get(path string) (any, bool) {
	return lookupPath(c.Data, path)
}

// GetString resolves a path and returns its value if it is a string.
func (c *WorkflowContext) GetString(path string) (string, bool) {
	v, ok := c.Get(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Param returns a rendered step parameter.
func (c *WorkflowContext) Param(key string) (any, bool) {
	v, ok := c.Config[key]
	return v, ok
}

// With returns a copy of the context with one data key set.
func (c *WorkflowContext) With(key string, value any) *WorkflowContext {
	return c.WithData(map[string]any{key: value})
}

// WithData returns a copy of the context with the given entries merged
// into the data snapshot, later writes winning.
func (c *WorkflowContext) WithData(data map[string]any) *WorkflowContext {
	out := *c
	merged := cloneMap(c.Data)
	if merged == nil {
		merged = make(map[string]any, len(data))
	}
	for k, v := range data {
		merged[k] = v
	}
	out.Data = merged
	return &out
}

// lookupPath descends nested map[string]any values along a dot path.
// Defined here rather than in the condition package so the context does
// not depend on internal packages; the evaluator uses its own copy.
func lookupPath(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = data
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		seg := path[start:i]
		start = i + 1
		if seg == "" {
			return nil, false
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ActionResult is what an action reports back to the executor. Use the
// ResultSuccess and ResultFailure constructors; a failure always carries
// a non-empty message.
type ActionResult struct {
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ResultSuccess reports a successful invocation. data (may be nil) is
// merged into the instance's accumulated data.
func ResultSuccess(data map[string]any, metadata ...map[string]any) *ActionResult {
	return &ActionResult{Success: true, Data: data, Metadata: firstMeta(metadata)}
}

// ResultFailure reports a failed invocation. An empty message is
// replaced with a generic one so failures are never silent.
func ResultFailure(message string, metadata ...map[string]any) *ActionResult {
	if message == "" {
		message = "action reported failure without a message"
	}
	return &ActionResult{Success: false, Error: message, Metadata: firstMeta(metadata)}
}

func firstMeta(metadata []map[string]any) map[string]any {
	if len(metadata) == 0 {
		return nil
	}
	return metadata[0]
}
