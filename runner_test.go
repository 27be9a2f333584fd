package stepflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlind/stepflow/pkg/api"
)

func TestLocalRunnerRunsWorkflowsAsync(t *testing.T) {
	ctx := context.Background()
	runner := NewLocalRunner(nil)
	require.NoError(t, runner.Engine.RegisterAction("set-data", NewSetDataAction()))

	def := New("async").
		Step("mark", WithAction("set-data"), WithParams(map[string]any{"done": true})).
		MustBuild()

	require.NoError(t, runner.StartWorkers(ctx, 2))
	defer runner.Stop()

	require.NoError(t, runner.StartAsync(ctx, "async-1", def, nil))
	require.NoError(t, runner.StartAsync(ctx, "async-2", def, nil))

	for _, id := range []string{"async-1", "async-2"} {
		require.Eventually(t, func() bool {
			inst, err := runner.Engine.GetInstance(ctx, id)
			return err == nil && inst.Status == StatusCompleted
		}, 2*time.Second, 5*time.Millisecond, "instance %s never completed", id)
	}
}

func TestLocalRunnerResumeAsync(t *testing.T) {
	ctx := context.Background()
	runner := NewLocalRunner(nil)
	require.NoError(t, runner.Engine.RegisterAction("wait", NewWaitAction()))
	require.NoError(t, runner.Engine.RegisterAction("set-data", NewSetDataAction()))

	def := New("async_approval").
		Step("hold",
			WithAction("wait"),
			WithConditions("approved != true")).
		Step("finish", WithAction("set-data"), WithParams(map[string]any{"finished": true})).
		Transition("hold", "finish").
		MustBuild()

	// Park synchronously first.
	inst, err := runner.Engine.Start(ctx, "appr-async", def, nil)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, inst.Status)

	require.NoError(t, runner.StartWorkers(ctx, 1))
	defer runner.Stop()

	// Still unapproved: the async resume parks it again.
	require.NoError(t, runner.ResumeAsync(ctx, "appr-async"))
	require.Eventually(t, func() bool {
		got, err := runner.Engine.GetInstance(ctx, "appr-async")
		return err == nil && got.Status == StatusWaiting
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLocalRunnerStartGuards(t *testing.T) {
	ctx := context.Background()
	runner := NewLocalRunner(NewInMemoryEngine())

	require.Error(t, runner.StartAsync(ctx, "x", nil, nil))
	require.Error(t, runner.ResumeAsync(ctx, ""))

	require.NoError(t, runner.StartWorkers(ctx, 0))
	require.Error(t, runner.StartWorkers(ctx, 1))
	runner.Stop()
	// Stop is idempotent and the runner can be restarted.
	runner.Stop()
	require.NoError(t, runner.StartWorkers(ctx, 1))
	runner.Stop()
}

func TestLocalRunnerSurvivesBadJobs(t *testing.T) {
	ctx := context.Background()
	runner := NewLocalRunner(nil)
	require.NoError(t, runner.Engine.RegisterAction("set-data", NewSetDataAction()))

	require.NoError(t, runner.StartWorkers(ctx, 1))
	defer runner.Stop()

	// Resume of an unknown instance fails inside the worker loop.
	require.NoError(t, runner.ResumeAsync(ctx, "no-such-instance"))

	def := New("after_bad").
		Step("mark", WithAction("set-data"), WithParams(map[string]any{"ok": true})).
		MustBuild()
	require.NoError(t, runner.StartAsync(ctx, "after-bad-1", def, nil))

	require.Eventually(t, func() bool {
		inst, err := runner.Engine.GetInstance(ctx, "after-bad-1")
		return err == nil && inst.Status == StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	var nf *api.InstanceNotFoundError
	_, err := runner.Engine.GetInstance(ctx, "no-such-instance")
	require.ErrorAs(t, err, &nf)
}
