package api

import (
	"time"
)

// WorkflowInstance is a single run of a workflow definition. Instances
// are mutated only by the engine; everything it learns during execution
// is recorded here and persisted after every step boundary.
type WorkflowInstance struct {
	ID              string         `json:"id"`
	WorkflowName    string         `json:"workflow_name"`
	WorkflowVersion string         `json:"workflow_version,omitempty"`
	Status          Status         `json:"status"`

	// Data is the accumulated execution data: the initial input merged
	// with every successful step's result data, later writes winning.
	Data map[string]any `json:"data,omitempty"`

	// CurrentStep is the id of the step being (or about to be) executed.
	// Empty once the instance reaches a terminal state after the last step.
	CurrentStep    string   `json:"current_step,omitempty"`
	CompletedSteps []string `json:"completed_steps,omitempty"`
	FailedSteps    []string `json:"failed_steps,omitempty"`

	// ErrorMessage carries the failure or cancellation reason for
	// FAILED and CANCELLED instances.
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransitionTo moves the instance to the target state, enforcing the
// lifecycle table. On an illegal move it returns an
// *InvalidStateTransitionError and leaves the instance untouched.
func (w *WorkflowInstance) TransitionTo(target Status) error {
	if !w.Status.CanTransition(target) {
		return &InvalidStateTransitionError{
			From:    w.Status,
			To:      target,
			Allowed: w.Status.AllowedTransitions(),
		}
	}
	w.Status = target
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// MergeData folds result data into the instance's accumulated data,
// later writes winning on key collision.
func (w *WorkflowInstance) MergeData(data map[string]any) {
	if len(data) == 0 {
		return
	}
	if w.Data == nil {
		w.Data = make(map[string]any, len(data))
	}
	for k, v := range data {
		w.Data[k] = v
	}
}

// MarkStepCompleted records a finished step in execution order.
func (w *WorkflowInstance) MarkStepCompleted(stepID string) {
	w.CompletedSteps = append(w.CompletedSteps, stepID)
	w.UpdatedAt = time.Now().UTC()
}

// MarkStepFailed records a terminally failed step.
func (w *WorkflowInstance) MarkStepFailed(stepID string) {
	w.FailedSteps = append(w.FailedSteps, stepID)
	w.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy. Stores return clones so callers cannot
// mutate persisted state behind the engine's back.
func (w *WorkflowInstance) Clone() *WorkflowInstance {
	if w == nil {
		return nil
	}
	out := *w
	out.Data = cloneMap(w.Data)
	if w.CompletedSteps != nil {
		out.CompletedSteps = append([]string(nil), w.CompletedSteps...)
	}
	if w.FailedSteps != nil {
		out.FailedSteps = append([]string(nil), w.FailedSteps...)
	}
	return &out
}
