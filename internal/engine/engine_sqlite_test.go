package engine

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mlind/stepflow/pkg/api"
)

func TestSQLiteEngineEndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "stepflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	eng, err := NewSQLiteEngine(db)
	require.NoError(t, err)
	mustRegister(t, eng, "noop", &countingAction{name: "noop", data: map[string]any{"done": true}})

	def := &api.WorkflowDefinition{
		Name: "durable",
		Steps: []api.StepSpec{
			{ID: "a", Action: "noop"},
			{ID: "b", Action: "noop"},
		},
		Transitions: []api.Transition{{From: "a", To: "b"}},
	}

	inst, err := eng.Start(ctx, "sqlite-1", def, map[string]any{"input": "x"})
	require.NoError(t, err)
	require.Equal(t, api.StatusCompleted, inst.Status)

	// The record survives the engine: read it back through the store.
	reloaded, err := eng.GetInstance(ctx, "sqlite-1")
	require.NoError(t, err)
	require.Equal(t, api.StatusCompleted, reloaded.Status)
	require.Equal(t, []string{"a", "b"}, reloaded.CompletedSteps)
	require.Equal(t, "x", reloaded.Data["input"])
	require.Equal(t, true, reloaded.Data["done"])

	// History landed in the same database.
	events, err := eng.History(ctx, "sqlite-1")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.Equal(t, api.EventWorkflowStarted, events[0].Type)
	require.Equal(t, api.EventWorkflowCompleted, events[len(events)-1].Type)
}
