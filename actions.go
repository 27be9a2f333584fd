package stepflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mlind/stepflow/pkg/api"
)

// Built-in actions covering the common leaf steps of a workflow:
// delays, logging, data writes, waits and deliberate failures. Register
// them under any name:
//
//	eng.RegisterAction("delay", stepflow.NewDelayAction())
//	eng.RegisterAction("log", stepflow.NewLogAction(nil))

// FuncAction wraps a plain function into an Action.
func FuncAction(name string, fn func(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error)) Action {
	return &api.ActionFunc{ActionName: name, Fn: fn}
}

// DelayAction sleeps for the duration given in its "duration"
// parameter (Go duration string, e.g. "150ms") and passes data through.
// The sleep honors context cancellation.
type DelayAction struct{}

// NewDelayAction returns a DelayAction.
func NewDelayAction() *DelayAction {
	return &DelayAction{}
}

func (a *DelayAction) Execute(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error) {
	raw, _ := wctx.Param("duration")
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("delay action: missing or non-string duration parameter")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("delay action: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(d):
	}
	return ResultSuccess(nil), nil
}

func (a *DelayAction) CanExecute(ctx context.Context, wctx *WorkflowContext) bool { return true }
func (a *DelayAction) Name() string                                               { return "delay" }
func (a *DelayAction) Description() string {
	return "sleeps for the duration parameter, honoring cancellation"
}

// LogAction writes its "message" parameter to a structured logger.
// The message is a parameter like any other, so {{path}} placeholders
// in it are rendered against instance data before the action runs.
type LogAction struct {
	logger *slog.Logger
}

// NewLogAction returns a LogAction. A nil logger uses slog.Default().
func NewLogAction(logger *slog.Logger) *LogAction {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAction{logger: logger}
}

func (a *LogAction) Execute(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error) {
	raw, _ := wctx.Param("message")
	msg, _ := raw.(string)
	a.logger.InfoContext(ctx, msg,
		slog.String("workflow_id", wctx.WorkflowID),
		slog.String("step", wctx.StepID),
	)
	return ResultSuccess(nil), nil
}

func (a *LogAction) CanExecute(ctx context.Context, wctx *WorkflowContext) bool { return true }
func (a *LogAction) Name() string                                               { return "log" }
func (a *LogAction) Description() string {
	return "logs the rendered message parameter"
}

// SetDataAction merges its parameters into instance data unchanged.
// Useful for seeding flags consumed by later conditions.
type SetDataAction struct{}

// NewSetDataAction returns a SetDataAction.
func NewSetDataAction() *SetDataAction {
	return &SetDataAction{}
}

func (a *SetDataAction) Execute(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error) {
	return ResultSuccess(wctx.Config), nil
}

func (a *SetDataAction) CanExecute(ctx context.Context, wctx *WorkflowContext) bool { return true }
func (a *SetDataAction) Name() string                                               { return "set-data" }
func (a *SetDataAction) Description() string {
	return "merges its parameters into instance data"
}

// WaitAction parks the workflow in WAITING with the "reason" parameter.
// A later Resume re-enters the same step, so pair it with a
// precondition that stops holding once the awaited input has arrived.
type WaitAction struct{}

// NewWaitAction returns a WaitAction.
func NewWaitAction() *WaitAction {
	return &WaitAction{}
}

func (a *WaitAction) Execute(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error) {
	raw, _ := wctx.Param("reason")
	reason, _ := raw.(string)
	if reason == "" {
		reason = "waiting for external input"
	}
	return nil, NewWaitError(reason)
}

func (a *WaitAction) CanExecute(ctx context.Context, wctx *WorkflowContext) bool { return true }
func (a *WaitAction) Name() string                                               { return "wait" }
func (a *WaitAction) Description() string {
	return "parks the workflow until resumed"
}

// FailAction fails its step with the "message" parameter. Useful for
// dead-end branches and for exercising compensation paths in tests.
type FailAction struct{}

// NewFailAction returns a FailAction.
func NewFailAction() *FailAction {
	return &FailAction{}
}

func (a *FailAction) Execute(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error) {
	raw, _ := wctx.Param("message")
	msg, _ := raw.(string)
	if msg == "" {
		msg = "step failed"
	}
	return ResultFailure(msg), nil
}

func (a *FailAction) CanExecute(ctx context.Context, wctx *WorkflowContext) bool { return true }
func (a *FailAction) Name() string                                               { return "fail" }
func (a *FailAction) Description() string {
	return "fails the step with the message parameter"
}
