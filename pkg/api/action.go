package api

import (
	"context"
)

// Action is a pluggable unit of work invoked by the executor, one per
// step. Implementations receive an immutable WorkflowContext and report
// the outcome as an ActionResult; returning a non-nil error is
// equivalent to a failed result and is subject to the step's retry
// policy. An action may return NewWaitError to park the instance in
// the WAITING state instead.
type Action interface {
	// Execute performs the work. Either the result or the error
	// describes the outcome; a nil result with a nil error is treated
	// as a success with no data.
	Execute(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error)

	// CanExecute is a cheap pre-flight check the executor runs before
	// each attempt. Returning false fails the step without invoking
	// Execute and without consuming retries.
	CanExecute(ctx context.Context, wctx *WorkflowContext) bool

	// Name identifies the action in logs and events.
	Name() string

	// Description is a one-line human description.
	Description() string
}

// ActionFunc adapts a bare function to the Action interface. CanExecute
// always reports true.
type ActionFunc struct {
	ActionName string
	Desc       string
	Fn         func(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error)
}

func (a *ActionFunc) Execute(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error) {
	return a.Fn(ctx, wctx)
}

func (a *ActionFunc) CanExecute(ctx context.Context, wctx *WorkflowContext) bool { return true }

func (a *ActionFunc) Name() string { return a.ActionName }

func (a *ActionFunc) Description() string { return a.Desc }

// ActionResolver maps the action references in step specs to registered
// Action implementations. A miss is an *ActionNotFoundError.
type ActionResolver interface {
	Resolve(name string) (Action, error)
}
