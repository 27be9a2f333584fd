package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// recordingSink captures callback names in order.
type recordingSink struct {
	NoopSink
	calls []string
}

func (r *recordingSink) OnWorkflowStarted(ctx context.Context, inst *WorkflowInstance) {
	r.calls = append(r.calls, "started")
}

func (r *recordingSink) OnStepCompleted(ctx context.Context, inst *WorkflowInstance, stepID string, err error, d time.Duration) {
	r.calls = append(r.calls, "step:"+stepID)
}

func TestNewCompositeSink(t *testing.T) {
	if _, ok := NewCompositeSink().(NoopSink); !ok {
		t.Fatal("no sinks should collapse to NoopSink")
	}
	if _, ok := NewCompositeSink(nil, nil).(NoopSink); !ok {
		t.Fatal("nil sinks should collapse to NoopSink")
	}

	single := &recordingSink{}
	if got := NewCompositeSink(nil, single); got != single {
		t.Fatal("a single sink should be returned unwrapped")
	}

	a, b := &recordingSink{}, &recordingSink{}
	comp := NewCompositeSink(a, b)
	inst := &WorkflowInstance{ID: "i-1", WorkflowName: "wf"}
	comp.OnWorkflowStarted(context.Background(), inst)
	comp.OnStepCompleted(context.Background(), inst, "a", nil, time.Millisecond)

	for _, r := range []*recordingSink{a, b} {
		if len(r.calls) != 2 || r.calls[0] != "started" || r.calls[1] != "step:a" {
			t.Fatalf("composite did not fan out: %v", r.calls)
		}
	}
}

func TestLoggingSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewLoggingSink(logger)

	inst := &WorkflowInstance{ID: "i-1", WorkflowName: "order-flow"}
	ctx := context.Background()
	sink.OnWorkflowStarted(ctx, inst)
	sink.OnStepStarted(ctx, inst, "charge")
	sink.OnStepCompleted(ctx, inst, "charge", errors.New("declined"), 5*time.Millisecond)
	sink.OnWorkflowFailed(ctx, inst, errors.New("declined"))
	sink.OnWorkflowCancelled(ctx, inst, "operator request")

	out := buf.String()
	for _, want := range []string{
		"workflow_started", "step_started", "step_completed",
		"workflow_failed", "workflow_cancelled",
		"instance_id=i-1", "workflow=order-flow", "operator request",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLoggingSinkDefaultsLogger(t *testing.T) {
	sink := NewLoggingSink(nil)
	if sink.(*LoggingSink).Logger == nil {
		t.Fatal("nil logger should default to slog.Default()")
	}
}

func TestBasicMetricsSnapshot(t *testing.T) {
	m := &BasicMetrics{}
	ctx := context.Background()
	inst := &WorkflowInstance{ID: "i-1", WorkflowName: "wf"}

	m.OnWorkflowStarted(ctx, inst)
	m.OnWorkflowStarted(ctx, inst)
	m.OnWorkflowStarted(ctx, inst)
	m.OnWorkflowCompleted(ctx, inst)
	m.OnWorkflowFailed(ctx, inst, errors.New("boom"))
	m.OnStepCompleted(ctx, inst, "a", nil, 10*time.Millisecond)
	m.OnStepCompleted(ctx, inst, "b", nil, 20*time.Millisecond)
	m.OnStepCompleted(ctx, inst, "c", errors.New("boom"), time.Hour) // not counted

	s := m.Snapshot()
	if s.WorkflowsStarted != 3 || s.WorkflowsCompleted != 1 || s.WorkflowsFailed != 1 {
		t.Fatalf("workflow counters: %+v", s)
	}
	if s.ActiveWorkflows != 1 {
		t.Fatalf("ActiveWorkflows = %d", s.ActiveWorkflows)
	}
	if s.StepsCompleted != 2 {
		t.Fatalf("StepsCompleted = %d", s.StepsCompleted)
	}
	if s.AvgStepDuration != 15*time.Millisecond {
		t.Fatalf("AvgStepDuration = %v", s.AvgStepDuration)
	}
}
