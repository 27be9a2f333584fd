package stepflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlind/stepflow"
)

func approvalDef(t *testing.T) *stepflow.WorkflowDefinition {
	t.Helper()
	return stepflow.New("approval").
		Step("hold",
			stepflow.WithAction("wait"),
			stepflow.WithConditions("approved != true")).
		Step("done", stepflow.WithAction("set-data"),
			stepflow.WithParams(map[string]any{"finished": true})).
		Transition("hold", "done").
		MustBuild()
}

func newApprovalEngine(t *testing.T) stepflow.Engine {
	t.Helper()
	eng := stepflow.NewInMemoryEngine()
	require.NoError(t, eng.RegisterAction("wait", stepflow.NewWaitAction()))
	require.NoError(t, eng.RegisterAction("set-data", stepflow.NewSetDataAction()))
	return eng
}

func TestPackageLevelLifecycleHelpers(t *testing.T) {
	ctx := context.Background()
	eng := newApprovalEngine(t)

	inst, err := stepflow.Start(ctx, eng, "appr-1", approvalDef(t), nil)
	require.NoError(t, err)
	require.Equal(t, stepflow.StatusWaiting, inst.Status)

	got, err := stepflow.GetInstance(ctx, eng, "appr-1")
	require.NoError(t, err)
	require.Equal(t, stepflow.StatusWaiting, got.Status)

	list, err := stepflow.ListInstances(ctx, eng, stepflow.InstanceFilter{
		WorkflowName: "approval",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)

	events, err := stepflow.History(ctx, eng, "appr-1")
	require.NoError(t, err)
	require.NotEmpty(t, events)

	cancelled, err := stepflow.Cancel(ctx, eng, "appr-1", "operator gave up")
	require.NoError(t, err)
	require.Equal(t, stepflow.StatusCancelled, cancelled.Status)
	require.Equal(t, "operator gave up", cancelled.ErrorMessage)

	_, err = stepflow.Resume(ctx, eng, "appr-1")
	require.Error(t, err)
}

func TestPackageLevelPause(t *testing.T) {
	ctx := context.Background()
	eng := newApprovalEngine(t)

	inst, err := stepflow.Start(ctx, eng, "appr-2", approvalDef(t), nil)
	require.NoError(t, err)
	require.Equal(t, stepflow.StatusWaiting, inst.Status)

	// WAITING is not pausable; only RUNNING is.
	_, err = stepflow.Pause(ctx, eng, "appr-2")
	require.Error(t, err)

	resumed, err := stepflow.Resume(ctx, eng, "appr-2")
	require.NoError(t, err)
	// Still unapproved, so the workflow parks again.
	require.Equal(t, stepflow.StatusWaiting, resumed.Status)
}

func TestEngineConfigStrictPreconditions(t *testing.T) {
	ctx := context.Background()
	eng := stepflow.NewInMemoryEngineWithConfig(stepflow.EngineConfig{
		StrictPreconditions: true,
	})
	require.NoError(t, eng.RegisterAction("set-data", stepflow.NewSetDataAction()))

	def := stepflow.New("strict").
		Step("gated",
			stepflow.WithAction("set-data"),
			stepflow.WithConditions("ready = true")).
		MustBuild()

	inst, err := eng.Start(ctx, "", def, map[string]any{"ready": false})
	require.Error(t, err)
	require.Equal(t, stepflow.StatusFailed, inst.Status)
}

func TestEvaluateHelper(t *testing.T) {
	data := map[string]any{
		"order": map[string]any{"total": 149.5},
		"plan":  "premium",
	}

	ok, err := stepflow.Evaluate("order.total >= 100", data)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = stepflow.Evaluate(`plan is "premium"`, data)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = stepflow.Evaluate("order.total >=", data)
	require.Error(t, err)
}

func TestRenderHelper(t *testing.T) {
	data := map[string]any{"user": map[string]any{"name": "ada"}}
	require.Equal(t, "hi ada", stepflow.Render("hi {{ user.name }}", data))
	require.Equal(t, "hi {{ missing }}", stepflow.Render("hi {{ missing }}", data))
}
