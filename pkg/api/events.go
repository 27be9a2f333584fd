package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// EventType classifies a WorkflowEvent record.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow_started"
	EventWorkflowCompleted EventType = "workflow_completed"
	EventWorkflowFailed    EventType = "workflow_failed"
	EventWorkflowCancelled EventType = "workflow_cancelled"
	EventWorkflowPaused    EventType = "workflow_paused"
	EventWorkflowResumed   EventType = "workflow_resumed"
	EventWorkflowWaiting   EventType = "workflow_waiting"
	EventStepStarted       EventType = "step_started"
	EventStepCompleted     EventType = "step_completed"
	EventStepFailed        EventType = "step_failed"
	EventStepSkipped       EventType = "step_skipped"
	EventCompensation      EventType = "compensation"
)

// WorkflowEvent is one record in an instance's append-only execution
// history.
type WorkflowEvent struct {
	ID           string    `json:"id"`
	InstanceID   string    `json:"instance_id"`
	WorkflowName string    `json:"workflow_name"`
	Type         EventType `json:"type"`
	Step         string    `json:"step,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	At           time.Time `json:"at"`
}

// EventSink receives callbacks from the engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay workflow execution. Sink
// failures are invisible to the engine: callbacks have no return value.
type EventSink interface {
	// OnWorkflowStarted is called once when an instance is first
	// started, before the entry step is executed.
	OnWorkflowStarted(ctx context.Context, inst *WorkflowInstance)

	// OnWorkflowCompleted is called when an instance reaches
	// StatusCompleted.
	OnWorkflowCompleted(ctx context.Context, inst *WorkflowInstance)

	// OnWorkflowFailed is called when an instance transitions to
	// StatusFailed.
	OnWorkflowFailed(ctx context.Context, inst *WorkflowInstance, err error)

	// OnWorkflowCancelled is called when an instance transitions to
	// StatusCancelled, with the caller-supplied reason.
	OnWorkflowCancelled(ctx context.Context, inst *WorkflowInstance, reason string)

	// OnStepStarted is called before each invocation attempt of a step.
	OnStepStarted(ctx context.Context, inst *WorkflowInstance, stepID string)

	// OnStepCompleted is called after a step settles, for both
	// successes and failures (err != nil).
	OnStepCompleted(ctx context.Context, inst *WorkflowInstance, stepID string, err error, duration time.Duration)
}

// NoopSink is an EventSink that does nothing. It is the default when no
// sink is configured.
type NoopSink struct{}

func (NoopSink) OnWorkflowStarted(ctx context.Context, inst *WorkflowInstance)               {}
func (NoopSink) OnWorkflowCompleted(ctx context.Context, inst *WorkflowInstance)             {}
func (NoopSink) OnWorkflowFailed(ctx context.Context, inst *WorkflowInstance, err error)     {}
func (NoopSink) OnWorkflowCancelled(ctx context.Context, inst *WorkflowInstance, r string)   {}
func (NoopSink) OnStepStarted(ctx context.Context, inst *WorkflowInstance, stepID string)    {}
func (NoopSink) OnStepCompleted(ctx context.Context, inst *WorkflowInstance, stepID string, err error, d time.Duration) {
}

// CompositeSink fans out events to multiple sinks.
type CompositeSink struct {
	sinks []EventSink
}

// NewCompositeSink creates a sink that forwards events to each non-nil
// sink in sinks.
func NewCompositeSink(sinks ...EventSink) EventSink {
	filtered := make([]EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return NoopSink{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeSink{sinks: filtered}
}

func (c *CompositeSink) OnWorkflowStarted(ctx context.Context, inst *WorkflowInstance) {
	for _, s := range c.sinks {
		s.OnWorkflowStarted(ctx, inst)
	}
}

func (c *CompositeSink) OnWorkflowCompleted(ctx context.Context, inst *WorkflowInstance) {
	for _, s := range c.sinks {
		s.OnWorkflowCompleted(ctx, inst)
	}
}

func (c *CompositeSink) OnWorkflowFailed(ctx context.Context, inst *WorkflowInstance, err error) {
	for _, s := range c.sinks {
		s.OnWorkflowFailed(ctx, inst, err)
	}
}

func (c *CompositeSink) OnWorkflowCancelled(ctx context.Context, inst *WorkflowInstance, reason string) {
	for _, s := range c.sinks {
		s.OnWorkflowCancelled(ctx, inst, reason)
	}
}

func (c *CompositeSink) OnStepStarted(ctx context.Context, inst *WorkflowInstance, stepID string) {
	for _, s := range c.sinks {
		s.OnStepStarted(ctx, inst, stepID)
	}
}

func (c *CompositeSink) OnStepCompleted(ctx context.Context, inst *WorkflowInstance, stepID string, err error, d time.Duration) {
	for _, s := range c.sinks {
		s.OnStepCompleted(ctx, inst, stepID, err, d)
	}
}

// LoggingSink writes structured logs using log/slog.
type LoggingSink struct {
	Logger *slog.Logger
}

// NewLoggingSink creates a sink that logs workflow / step lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingSink{Logger: logger}
}

func (o *LoggingSink) OnWorkflowStarted(ctx context.Context, inst *WorkflowInstance) {
	o.Logger.InfoContext(ctx, "workflow_started",
		slog.String("workflow", inst.WorkflowName),
		slog.String("instance_id", inst.ID),
	)
}

func (o *LoggingSink) OnWorkflowCompleted(ctx context.Context, inst *WorkflowInstance) {
	o.Logger.InfoContext(ctx, "workflow_completed",
		slog.String("workflow", inst.WorkflowName),
		slog.String("instance_id", inst.ID),
	)
}

func (o *LoggingSink) OnWorkflowFailed(ctx context.Context, inst *WorkflowInstance, err error) {
	o.Logger.ErrorContext(ctx, "workflow_failed",
		slog.String("workflow", inst.WorkflowName),
		slog.String("instance_id", inst.ID),
		slog.Any("error", err),
	)
}

func (o *LoggingSink) OnWorkflowCancelled(ctx context.Context, inst *WorkflowInstance, reason string) {
	o.Logger.InfoContext(ctx, "workflow_cancelled",
		slog.String("workflow", inst.WorkflowName),
		slog.String("instance_id", inst.ID),
		slog.String("reason", reason),
	)
}

func (o *LoggingSink) OnStepStarted(ctx context.Context, inst *WorkflowInstance, stepID string) {
	o.Logger.DebugContext(ctx, "step_started",
		slog.String("workflow", inst.WorkflowName),
		slog.String("instance_id", inst.ID),
		slog.String("step", stepID),
	)
}

func (o *LoggingSink) OnStepCompleted(ctx context.Context, inst *WorkflowInstance, stepID string, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_completed",
		slog.String("workflow", inst.WorkflowName),
		slog.String("instance_id", inst.ID),
		slog.String("step", stepID),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements EventSink, and can be combined with LoggingSink via
// NewCompositeSink.
type BasicMetrics struct {
	NoopSink

	workflowsStarted   atomic.Int64
	workflowsCompleted atomic.Int64
	workflowsFailed    atomic.Int64
	workflowsCancelled atomic.Int64
	stepsCompleted     atomic.Int64
	totalStepDuration  atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	WorkflowsStarted   int64
	WorkflowsCompleted int64
	WorkflowsFailed    int64
	WorkflowsCancelled int64
	ActiveWorkflows    int64

	StepsCompleted  int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnWorkflowStarted(ctx context.Context, inst *WorkflowInstance) {
	m.workflowsStarted.Add(1)
}

func (m *BasicMetrics) OnWorkflowCompleted(ctx context.Context, inst *WorkflowInstance) {
	m.workflowsCompleted.Add(1)
}

func (m *BasicMetrics) OnWorkflowFailed(ctx context.Context, inst *WorkflowInstance, err error) {
	m.workflowsFailed.Add(1)
}

func (m *BasicMetrics) OnWorkflowCancelled(ctx context.Context, inst *WorkflowInstance, reason string) {
	m.workflowsCancelled.Add(1)
}

func (m *BasicMetrics) OnStepCompleted(ctx context.Context, inst *WorkflowInstance, stepID string, err error, d time.Duration) {
	// Only count successful steps for average duration.
	if err == nil {
		m.stepsCompleted.Add(1)
		m.totalStepDuration.Add(d.Nanoseconds())
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.workflowsStarted.Load()
	completed := m.workflowsCompleted.Load()
	failed := m.workflowsFailed.Load()
	cancelled := m.workflowsCancelled.Load()
	steps := m.stepsCompleted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		WorkflowsStarted:   started,
		WorkflowsCompleted: completed,
		WorkflowsFailed:    failed,
		WorkflowsCancelled: cancelled,
		ActiveWorkflows:    started - completed - failed - cancelled,
		StepsCompleted:     steps,
		AvgStepDuration:    avg,
	}
}
