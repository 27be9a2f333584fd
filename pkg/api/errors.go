package api

import (
	"errors"
	"fmt"
	"strings"
)

// The error types below form the engine's error taxonomy. Callers are
// expected to branch on error kind via errors.As, not on message text;
// every type also exposes a machine-readable Context map.

// InvalidDefinitionError reports a structural problem in a workflow
// definition. It is never retried: the caller must fix the definition.
type InvalidDefinitionError struct {
	Field string
	Value any
	Hint  string
}

func (e *InvalidDefinitionError) Error() string {
	msg := fmt.Sprintf("invalid workflow definition: field %q", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf(" (got %v)", e.Value)
	}
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// Context returns the machine-readable error context.
func (e *InvalidDefinitionError) Context() map[string]any {
	return map[string]any{"field": e.Field, "value": e.Value, "hint": e.Hint}
}

func newDefinitionError(field string, value any, hint string) error {
	return &InvalidDefinitionError{Field: field, Value: value, Hint: hint}
}

// InvalidStateTransitionError reports an illegal lifecycle move.
type InvalidStateTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *InvalidStateTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	legal := "none (terminal state)"
	if len(allowed) > 0 {
		legal = strings.Join(allowed, ", ")
	}
	return fmt.Sprintf("illegal state transition %s -> %s; legal targets: %s", e.From, e.To, legal)
}

func (e *InvalidStateTransitionError) Context() map[string]any {
	return map[string]any{"from": e.From, "to": e.To, "allowed": e.Allowed}
}

// InvalidWorkflowStateError reports an engine operation applied to an
// instance whose current state does not permit it, for example resuming
// a COMPLETED instance.
type InvalidWorkflowStateError struct {
	InstanceID string
	Status     Status
	Op         string
}

func (e *InvalidWorkflowStateError) Error() string {
	return fmt.Sprintf("cannot %s instance %s in state %s", e.Op, e.InstanceID, e.Status)
}

func (e *InvalidWorkflowStateError) Context() map[string]any {
	return map[string]any{"instance_id": e.InstanceID, "status": e.Status, "op": e.Op}
}

// InstanceNotFoundError reports a missing storage record.
type InstanceNotFoundError struct {
	InstanceID string
}

func (e *InstanceNotFoundError) Error() string {
	return fmt.Sprintf("workflow instance not found: %s", e.InstanceID)
}

func (e *InstanceNotFoundError) Context() map[string]any {
	return map[string]any{"instance_id": e.InstanceID}
}

// DefinitionNotFoundError reports a workflow whose definition the engine
// does not hold, for example resuming an instance on an engine that
// never started its workflow.
type DefinitionNotFoundError struct {
	WorkflowName string
}

func (e *DefinitionNotFoundError) Error() string {
	return fmt.Sprintf("no definition recorded for workflow %q; start it on this engine first", e.WorkflowName)
}

func (e *DefinitionNotFoundError) Context() map[string]any {
	return map[string]any{"workflow_name": e.WorkflowName}
}

// ActionNotFoundError reports an action reference the resolver could not
// satisfy. It is fatal to the step; retrying cannot help.
type ActionNotFoundError struct {
	Name string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("action not registered: %q; register it before starting the workflow", e.Name)
}

func (e *ActionNotFoundError) Context() map[string]any {
	return map[string]any{"action": e.Name}
}

// StepExecutionError wraps an action failure (returned error or failed
// ActionResult) with the step and attempt it occurred on.
type StepExecutionError struct {
	StepID      string
	Attempt     int // 1-based
	MaxAttempts int // initial attempt + configured retries
	Cause       error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %q failed (attempt %d/%d): %v", e.StepID, e.Attempt, e.MaxAttempts, e.Cause)
}

func (e *StepExecutionError) Unwrap() error { return e.Cause }

// Retryable reports whether the step has attempts left.
func (e *StepExecutionError) Retryable() bool { return e.Attempt < e.MaxAttempts }

func (e *StepExecutionError) Context() map[string]any {
	return map[string]any{
		"step_id":      e.StepID,
		"attempt":      e.Attempt,
		"max_attempts": e.MaxAttempts,
		"retryable":    e.Retryable(),
	}
}

// EvaluationError reports a malformed or unevaluable condition expression.
type EvaluationError struct {
	Expression string
	Reason     string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate condition %q: %s", e.Expression, e.Reason)
}

func (e *EvaluationError) Context() map[string]any {
	return map[string]any{"expression": e.Expression, "reason": e.Reason}
}

// waitError is returned by actions that want to park the instance until
// it is resumed externally (for example after a manual approval).
type waitError struct {
	Reason string
}

func (e *waitError) Error() string {
	return "waiting: " + e.Reason
}

// NewWaitError returns the error an Action returns to request that the
// executor park the instance in the WAITING state instead of treating
// the invocation as a failure. Engine.Resume re-enters at the same step.
func NewWaitError(reason string) error {
	return &waitError{Reason: reason}
}

// IsWaitError returns (reason, true) if err requests a wait.
func IsWaitError(err error) (string, bool) {
	var w *waitError
	if errors.As(err, &w) {
		return w.Reason, true
	}
	return "", false
}
