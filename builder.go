package stepflow

import (
	"fmt"

	"github.com/mlind/stepflow/pkg/api"
)

// FlowBuilder provides a fluent API for defining workflows:
//
//	def, err := stepflow.New("onboard_user").
//	    Step("create_account", stepflow.WithAction("create-account")).
//	    Step("send_welcome", stepflow.WithAction("send-email"),
//	        stepflow.WithParams(map[string]any{"to": "{{ user.email }}"})).
//	    Transition("create_account", "send_welcome").
//	    Build()
//
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := eng.Start(ctx, "", def, input)
type FlowBuilder struct {
	def api.WorkflowDefinition
}

// StepOption configures one step added through FlowBuilder.Step.
type StepOption func(*api.StepSpec)

// WithAction sets the registered action the step invokes. A step
// without an action is a pure routing gate.
func WithAction(name string) StepOption {
	return func(s *api.StepSpec) { s.Action = name }
}

// WithParams sets the step's action parameters. Values render
// {{path}} placeholders against instance data at execution time.
func WithParams(params map[string]any) StepOption {
	return func(s *api.StepSpec) { s.Parameters = params }
}

// WithConditions sets the step's preconditions; all must hold for the
// step to execute.
func WithConditions(conditions ...string) StepOption {
	return func(s *api.StepSpec) { s.Conditions = conditions }
}

// WithRetry sets how many times a failing step is retried after its
// first attempt.
func WithRetry(attempts int) StepOption {
	return func(s *api.StepSpec) { s.RetryAttempts = attempts }
}

// WithTimeout sets the step's advisory timeout, e.g. "30s" or "5m".
func WithTimeout(timeout string) StepOption {
	return func(s *api.StepSpec) { s.Timeout = timeout }
}

// WithCompensation sets the action run to undo the step when a later
// step fails.
func WithCompensation(action string) StepOption {
	return func(s *api.StepSpec) { s.Compensation = action }
}

// WithDescription sets the step's human-readable description.
func WithDescription(desc string) StepOption {
	return func(s *api.StepSpec) { s.Description = desc }
}

// New creates a new workflow builder with the given name.
func New(name string) *FlowBuilder {
	return &FlowBuilder{
		def: api.WorkflowDefinition{
			Name:  name,
			Steps: make([]api.StepSpec, 0),
		},
	}
}

// Name returns the workflow name.
func (b *FlowBuilder) Name() string {
	return b.def.Name
}

// Version sets the workflow version string.
func (b *FlowBuilder) Version(version string) *FlowBuilder {
	b.def.Version = version
	return b
}

// Description sets the workflow description.
func (b *FlowBuilder) Description(desc string) *FlowBuilder {
	b.def.Description = desc
	return b
}

// Metadata sets one workflow metadata entry.
func (b *FlowBuilder) Metadata(key string, value any) *FlowBuilder {
	if b.def.Metadata == nil {
		b.def.Metadata = make(map[string]any)
	}
	b.def.Metadata[key] = value
	return b
}

// Step appends a step to the workflow. Steps execute in declaration
// order unless transitions say otherwise.
func (b *FlowBuilder) Step(id string, opts ...StepOption) *FlowBuilder {
	if id == "" {
		panic("stepflow: step id must not be empty")
	}

	step := api.StepSpec{ID: id}
	for _, opt := range opts {
		if opt == nil {
			panic(fmt.Sprintf("stepflow: step %q has nil option", id))
		}
		opt(&step)
	}

	b.def.Steps = append(b.def.Steps, step)
	return b
}

// Transition adds an unconditional transition between two steps.
func (b *FlowBuilder) Transition(from, to string) *FlowBuilder {
	return b.TransitionWhen(from, to, "")
}

// TransitionWhen adds a transition guarded by a condition expression.
// Transitions are tried in the order they were added; the first whose
// condition holds wins.
func (b *FlowBuilder) TransitionWhen(from, to, cond string) *FlowBuilder {
	b.def.Transitions = append(b.def.Transitions, api.Transition{
		From:      from,
		To:        to,
		Condition: cond,
	})
	return b
}

// Build validates the assembled definition and returns it.
func (b *FlowBuilder) Build() (*api.WorkflowDefinition, error) {
	return api.ParseDefinition(&b.def)
}

// MustBuild is like Build but panics on error.
// Useful for initialization in main().
func (b *FlowBuilder) MustBuild() *api.WorkflowDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
