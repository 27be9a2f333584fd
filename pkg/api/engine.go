package api

import (
	"context"
	"time"
)

// InstanceFilter narrows ListInstances results. Zero values mean
// "no filter" for that field.
type InstanceFilter struct {
	// WorkflowName, if non-empty, limits results to instances of the
	// given workflow.
	WorkflowName string

	// Status, if non-empty, limits results to instances in the given
	// lifecycle state.
	Status Status

	// CreatedBefore / CreatedAfter, if non-zero, bound the creation time.
	CreatedBefore time.Time
	CreatedAfter  time.Time

	// Limit caps the number of results (0 = unlimited); Offset skips
	// the first n matches. Applied after sorting by creation time.
	Limit  int
	Offset int
}

// Engine drives workflow instances through their lifecycle. Execution
// is synchronous: Start and Resume return once the instance has reached
// WAITING, PAUSED or a terminal state.
type Engine interface {
	// RegisterAction makes an action available under its reference
	// name. Registering a nil action or a duplicate name is an error.
	RegisterAction(name string, action Action) error

	// Start validates the definition, creates a PENDING instance (a
	// generated id when instanceID is empty), persists it, and runs it.
	// The returned instance reflects the state reached when execution
	// stopped.
	Start(ctx context.Context, instanceID string, def *WorkflowDefinition, input map[string]any) (*WorkflowInstance, error)

	// Resume continues a PENDING, WAITING or PAUSED instance from its
	// current step. Resuming a terminal instance returns an
	// *InvalidWorkflowStateError and leaves the record unchanged.
	Resume(ctx context.Context, instanceID string) (*WorkflowInstance, error)

	// Pause parks a RUNNING or PENDING instance so it is skipped at the
	// next step boundary. Pausing a terminal instance is an error.
	Pause(ctx context.Context, instanceID string) (*WorkflowInstance, error)

	// Cancel moves an active instance to CANCELLED with the given
	// reason. Cancelling a terminal instance returns an
	// *InvalidStateTransitionError.
	Cancel(ctx context.Context, instanceID string, reason string) (*WorkflowInstance, error)

	// GetInstance looks up an instance by id.
	GetInstance(ctx context.Context, instanceID string) (*WorkflowInstance, error)

	// ListInstances returns instances matching the filter, oldest first.
	ListInstances(ctx context.Context, filter InstanceFilter) ([]*WorkflowInstance, error)

	// History returns the instance's execution events in append order.
	History(ctx context.Context, instanceID string) ([]WorkflowEvent, error)
}
