package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mlind/stepflow/internal/condition"
	"github.com/mlind/stepflow/internal/persistence"
	"github.com/mlind/stepflow/pkg/api"
)

// executor drives a single instance from its current step to WAITING,
// PAUSED or a terminal state, persisting after every step boundary.
// One executor run owns its instance; concurrent runs of distinct
// instances only meet inside the store.
type executor struct {
	store    persistence.InstanceStore
	events   persistence.EventStore
	sink     api.EventSink
	logger   *slog.Logger
	resolver api.ActionResolver

	strictPreconditions bool
	retryBackoff        time.Duration
}

// stepOutcome is the settled result of one step.
type stepOutcome struct {
	executed   bool   // false when preconditions skipped the step
	waitReason string // non-empty when the action requested WAITING
	err        error  // terminal step failure
}

func (x *executor) run(ctx context.Context, def *api.WorkflowDefinition, inst *api.WorkflowInstance) (*api.WorkflowInstance, error) {
	current := inst.CurrentStep
	if current == "" {
		current = def.EntryStep()
	}

	for current != "" {
		select {
		case <-ctx.Done():
			return x.failInstance(ctx, def, inst, "", ctx.Err())
		default:
		}

		// External Cancel/Pause lands in the store; honor it before
		// starting the next step.
		if stopped, err := x.interruptedAtBoundary(ctx, inst); err != nil {
			return inst, err
		} else if stopped != nil {
			return stopped, nil
		}

		step, ok := def.Step(current)
		if !ok {
			return x.failInstance(ctx, def, inst, "",
				fmt.Errorf("instance references unknown step %q", current))
		}

		inst.CurrentStep = current
		inst.UpdatedAt = time.Now().UTC()
		if err := x.store.Save(ctx, inst); err != nil {
			return inst, err
		}

		outcome := x.executeStep(ctx, inst, step)
		switch {
		case outcome.err != nil:
			return x.failInstance(ctx, def, inst, step.ID, outcome.err)
		case outcome.waitReason != "":
			return x.parkWaiting(ctx, inst, step.ID, outcome.waitReason)
		}

		// A cancel issued while the action was in flight wins: the
		// in-flight result is discarded, not persisted.
		if stopped, err := x.interruptedAtBoundary(ctx, inst); err != nil {
			return inst, err
		} else if stopped != nil {
			return stopped, nil
		}

		if err := x.store.Save(ctx, inst); err != nil {
			return inst, err
		}

		next, err := x.selectNext(def, current, inst.Data)
		if err != nil {
			return x.failInstance(ctx, def, inst, step.ID, err)
		}
		current = next
	}

	return x.complete(ctx, inst)
}

// interruptedAtBoundary reloads the persisted record and reacts to an
// externally requested Cancel or Pause. A cancelled record wins over
// any in-memory progress; a paused record absorbs the progress and
// keeps the PAUSED status.
func (x *executor) interruptedAtBoundary(ctx context.Context, inst *api.WorkflowInstance) (*api.WorkflowInstance, error) {
	stored, err := x.store.Get(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	switch stored.Status {
	case api.StatusCancelled:
		return stored, nil
	case api.StatusPaused:
		inst.Status = api.StatusPaused
		inst.UpdatedAt = time.Now().UTC()
		if err := x.store.Save(ctx, inst); err != nil {
			return nil, err
		}
		return inst, nil
	default:
		return nil, nil
	}
}

// executeStep settles one step: precondition check, parameter
// rendering, action resolution and the retry loop.
func (x *executor) executeStep(ctx context.Context, inst *api.WorkflowInstance, step *api.StepSpec) stepOutcome {
	pass, err := condition.EvaluateAll(step.Conditions, inst.Data)
	if err != nil {
		return stepOutcome{err: err}
	}
	if !pass {
		if x.strictPreconditions {
			return stepOutcome{err: &api.StepExecutionError{
				StepID:      step.ID,
				Attempt:     1,
				MaxAttempts: 1,
				Cause:       fmt.Errorf("preconditions not met"),
			}}
		}
		x.record(ctx, inst, api.EventStepSkipped, step.ID, "preconditions not met")
		return stepOutcome{executed: false}
	}

	// A step without an action is a pure gate: its preconditions and
	// transitions are its whole behavior.
	if step.Action == "" {
		inst.MarkStepCompleted(step.ID)
		x.record(ctx, inst, api.EventStepCompleted, step.ID, "gate")
		return stepOutcome{executed: true}
	}

	action, err := x.resolver.Resolve(step.Action)
	if err != nil {
		return stepOutcome{err: err}
	}

	params := condition.RenderParams(step.Parameters, inst.Data)
	maxAttempts := 1 + step.RetryAttempts

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		wctx := api.NewWorkflowContext(inst.ID, step.ID, inst.Data, params)
		wctx.Instance = inst.Clone()

		x.sink.OnStepStarted(ctx, inst, step.ID)
		x.record(ctx, inst, api.EventStepStarted, step.ID,
			fmt.Sprintf("attempt %d/%d", attempt, maxAttempts))

		if !action.CanExecute(ctx, wctx) {
			// Preflight rejection is not retried.
			lastErr = &api.StepExecutionError{
				StepID:      step.ID,
				Attempt:     attempt,
				MaxAttempts: attempt,
				Cause:       fmt.Errorf("action %q preflight check rejected execution", step.Action),
			}
			x.sink.OnStepCompleted(ctx, inst, step.ID, lastErr, 0)
			break
		}

		started := time.Now()
		result, execErr := action.Execute(ctx, wctx)
		duration := time.Since(started)

		if reason, ok := api.IsWaitError(execErr); ok {
			return stepOutcome{executed: true, waitReason: reason}
		}

		if execErr == nil && result != nil && !result.Success {
			execErr = errors.New(result.Error)
		}

		x.sink.OnStepCompleted(ctx, inst, step.ID, execErr, duration)

		if execErr == nil {
			if result != nil {
				inst.MergeData(result.Data)
			}
			inst.MarkStepCompleted(step.ID)
			x.record(ctx, inst, api.EventStepCompleted, step.ID, "")
			return stepOutcome{executed: true}
		}

		lastErr = &api.StepExecutionError{
			StepID:      step.ID,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Cause:       execErr,
		}
		x.record(ctx, inst, api.EventStepFailed, step.ID, lastErr.Error())

		if attempt < maxAttempts && x.retryBackoff > 0 {
			select {
			case <-ctx.Done():
				return stepOutcome{err: ctx.Err()}
			case <-time.After(x.retryBackoff):
			}
		}
	}

	return stepOutcome{err: lastErr}
}

// selectNext picks the step to run after current: outgoing transitions
// in declaration order, first match wins (an unconditional transition
// always matches). A definition without any transitions at all falls
// back to declaration order; otherwise no match means completion.
func (x *executor) selectNext(def *api.WorkflowDefinition, current string, data map[string]any) (string, error) {
	outgoing := def.TransitionsFrom(current)
	if len(outgoing) == 0 {
		if len(def.Transitions) == 0 {
			return def.NextDeclaredStep(current), nil
		}
		return "", nil
	}
	for _, t := range outgoing {
		if t.Condition == "" {
			return t.To, nil
		}
		ok, err := condition.Evaluate(t.Condition, data)
		if err != nil {
			return "", err
		}
		if ok {
			return t.To, nil
		}
	}
	return "", nil
}

func (x *executor) complete(ctx context.Context, inst *api.WorkflowInstance) (*api.WorkflowInstance, error) {
	inst.CurrentStep = ""
	if err := inst.TransitionTo(api.StatusCompleted); err != nil {
		return inst, err
	}
	if err := x.store.Save(ctx, inst); err != nil {
		return inst, err
	}
	x.sink.OnWorkflowCompleted(ctx, inst)
	x.record(ctx, inst, api.EventWorkflowCompleted, "", "")
	return inst, nil
}

func (x *executor) parkWaiting(ctx context.Context, inst *api.WorkflowInstance, stepID, reason string) (*api.WorkflowInstance, error) {
	if err := inst.TransitionTo(api.StatusWaiting); err != nil {
		return inst, err
	}
	if err := x.store.Save(ctx, inst); err != nil {
		return inst, err
	}
	x.record(ctx, inst, api.EventWorkflowWaiting, stepID, reason)
	x.logger.Debug("workflow waiting",
		slog.String("instance_id", inst.ID),
		slog.String("step", stepID),
		slog.String("reason", reason),
	)
	return inst, nil
}

// failInstance finalizes FAILED state: bookkeeping, compensation
// unwind, persistence and notifications. The triggering error is both
// recorded on the instance and returned.
func (x *executor) failInstance(ctx context.Context, def *api.WorkflowDefinition, inst *api.WorkflowInstance, failedStepID string, cause error) (*api.WorkflowInstance, error) {
	if failedStepID != "" {
		inst.MarkStepFailed(failedStepID)
	}
	x.compensate(ctx, def, inst, failedStepID)

	inst.ErrorMessage = cause.Error()
	if err := inst.TransitionTo(api.StatusFailed); err != nil {
		return inst, err
	}
	if err := x.store.Save(ctx, inst); err != nil {
		return inst, err
	}
	x.sink.OnWorkflowFailed(ctx, inst, cause)
	x.record(ctx, inst, api.EventWorkflowFailed, failedStepID, cause.Error())
	return inst, cause
}

// compensate runs compensation actions best-effort: the failed step
// first, then previously completed steps most-recent-first. Failures
// are logged, never re-raised.
func (x *executor) compensate(ctx context.Context, def *api.WorkflowDefinition, inst *api.WorkflowInstance, failedStepID string) {
	var order []string
	if failedStepID != "" {
		order = append(order, failedStepID)
	}
	for i := len(inst.CompletedSteps) - 1; i >= 0; i-- {
		order = append(order, inst.CompletedSteps[i])
	}

	for _, stepID := range order {
		step, ok := def.Step(stepID)
		if !ok || step.Compensation == "" {
			continue
		}
		action, err := x.resolver.Resolve(step.Compensation)
		if err != nil {
			x.logger.Warn("compensation action unavailable",
				slog.String("instance_id", inst.ID),
				slog.String("step", stepID),
				slog.String("compensation", step.Compensation),
				slog.Any("error", err),
			)
			continue
		}

		wctx := api.NewWorkflowContext(inst.ID, stepID, inst.Data, nil)
		wctx.Instance = inst.Clone()

		result, err := action.Execute(ctx, wctx)
		if err == nil && result != nil && !result.Success {
			err = errors.New(result.Error)
		}
		if err != nil {
			x.logger.Warn("compensation failed",
				slog.String("instance_id", inst.ID),
				slog.String("step", stepID),
				slog.String("compensation", step.Compensation),
				slog.Any("error", err),
			)
			x.record(ctx, inst, api.EventCompensation, stepID, "failed: "+err.Error())
			continue
		}
		x.record(ctx, inst, api.EventCompensation, stepID, "")
	}
}

// record appends one history event; history failures are logged, not
// propagated.
func (x *executor) record(ctx context.Context, inst *api.WorkflowInstance, typ api.EventType, step, detail string) {
	ev := api.WorkflowEvent{
		ID:           uuid.New().String(),
		InstanceID:   inst.ID,
		WorkflowName: inst.WorkflowName,
		Type:         typ,
		Step:         step,
		Detail:       detail,
		At:           time.Now().UTC(),
	}
	if err := x.events.AppendEvent(ctx, ev); err != nil {
		x.logger.Warn("history append failed",
			slog.String("instance_id", inst.ID),
			slog.String("type", string(typ)),
			slog.Any("error", err),
		)
	}
}
