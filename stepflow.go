package stepflow

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mlind/stepflow/internal/condition"
	"github.com/mlind/stepflow/internal/engine"
	"github.com/mlind/stepflow/internal/persistence"
	"github.com/mlind/stepflow/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine               = api.Engine
	WorkflowDefinition   = api.WorkflowDefinition
	StepSpec             = api.StepSpec
	Transition           = api.Transition
	WorkflowInstance     = api.WorkflowInstance
	WorkflowContext      = api.WorkflowContext
	WorkflowEvent        = api.WorkflowEvent
	EventType            = api.EventType
	InstanceFilter       = api.InstanceFilter
	Status               = api.Status
	Action               = api.Action
	ActionFunc           = api.ActionFunc
	ActionResult         = api.ActionResult
	EventSink            = api.EventSink
	LoggingSink          = api.LoggingSink
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeSink        = api.CompositeSink
	NoopSink             = api.NoopSink
)

// Re-export definition parsing, sink helpers and action result helpers.

var (
	ParseDefinition     = api.ParseDefinition
	ParseDefinitionYAML = api.ParseDefinitionYAML
	NewLoggingSink      = api.NewLoggingSink
	NewCompositeSink    = api.NewCompositeSink
	NewWaitError        = api.NewWaitError
	IsWaitError         = api.IsWaitError
	ResultSuccess       = api.ResultSuccess
	ResultFailure       = api.ResultFailure
)

// Re-export status values for convenience.

const (
	StatusPending   = api.StatusPending
	StatusRunning   = api.StatusRunning
	StatusWaiting   = api.StatusWaiting
	StatusPaused    = api.StatusPaused
	StatusCompleted = api.StatusCompleted
	StatusFailed    = api.StatusFailed
	StatusCancelled = api.StatusCancelled
)

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEngine returns an Engine backed entirely by in-memory stores.
func NewInMemoryEngine() Engine {
	return engine.NewInMemoryEngine()
}

// NewInMemoryEngineWithSink returns an in-memory Engine with the given EventSink.
func NewInMemoryEngineWithSink(sink EventSink) Engine {
	return engine.NewInMemoryEngineWithSink(sink)
}

// NewSQLiteEngine returns an Engine that persists workflow instances
// and history in a SQLite database. Workflow definitions are kept in-memory.
func NewSQLiteEngine(db *sql.DB) (Engine, error) {
	return engine.NewSQLiteEngine(db)
}

// NewSQLiteEngineWithSink returns a SQLite-backed Engine with the given EventSink.
func NewSQLiteEngineWithSink(db *sql.DB, sink EventSink) (Engine, error) {
	return engine.NewSQLiteEngineWithSink(db, sink)
}

// NewRedisEngine returns an Engine that persists instances in Redis.
func NewRedisEngine(client *redis.Client) Engine {
	return engine.NewRedisEngine(client)
}

// NewRedisEngineWithSink returns a Redis-backed Engine with the given EventSink.
func NewRedisEngineWithSink(client *redis.Client, sink EventSink) Engine {
	return engine.NewRedisEngineWithSink(client, sink)
}

// EngineConfig carries the backend-independent engine knobs. Zero
// values mean: noop sink, slog.Default(), lenient preconditions and
// immediate retries.
type EngineConfig struct {
	// Sink observes workflow and step lifecycle events.
	Sink EventSink

	// Logger receives the engine's structured logs.
	Logger *slog.Logger

	// StrictPreconditions fails a step whose preconditions do not
	// hold instead of skipping it.
	StrictPreconditions bool

	// RetryBackoff is the fixed delay between retry attempts of a
	// failing step.
	RetryBackoff time.Duration
}

func (c EngineConfig) internal(stores persistence.Stores) engine.Config {
	return engine.Config{
		Stores:              stores,
		Sink:                c.Sink,
		Logger:              c.Logger,
		StrictPreconditions: c.StrictPreconditions,
		RetryBackoff:        c.RetryBackoff,
	}
}

// NewInMemoryEngineWithConfig returns an in-memory Engine with the
// given configuration.
func NewInMemoryEngineWithConfig(cfg EngineConfig) Engine {
	return engine.NewEngineWithConfig(cfg.internal(persistence.Stores{}))
}

// NewSQLiteEngineWithConfig returns a SQLite-backed Engine with the
// given configuration.
func NewSQLiteEngineWithConfig(db *sql.DB, cfg EngineConfig) (Engine, error) {
	instances, err := persistence.NewSQLiteInstanceStore(db)
	if err != nil {
		return nil, err
	}
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	return engine.NewEngineWithConfig(cfg.internal(persistence.Stores{
		Instances: instances,
		Events:    events,
	})), nil
}

// NewRedisEngineWithConfig returns a Redis-backed Engine with the
// given configuration.
func NewRedisEngineWithConfig(client *redis.Client, cfg EngineConfig) Engine {
	return engine.NewEngineWithConfig(cfg.internal(persistence.Stores{
		Instances: persistence.NewRedisInstanceStore(client, "stepflow:"),
	}))
}

// Expression helpers, exposed for callers that want to evaluate the
// same condition grammar and parameter templates the engine uses.

// Evaluate evaluates a single condition expression against data.
func Evaluate(expr string, data map[string]any) (bool, error) {
	return condition.Evaluate(expr, data)
}

// Render substitutes {{path}} and {path} placeholders in s from data.
// Unresolved placeholders are left verbatim.
func Render(s string, data map[string]any) string {
	return condition.Render(s, data)
}

// Convenience helpers that just forward to the underlying Engine.

// Start runs a workflow definition synchronously until it completes,
// fails, or parks in WAITING. An empty instanceID gets a generated one.
func Start(ctx context.Context, eng Engine, instanceID string, def *WorkflowDefinition, input map[string]any) (*WorkflowInstance, error) {
	return eng.Start(ctx, instanceID, def, input)
}

// GetInstance fetches an instance by ID.
func GetInstance(ctx context.Context, eng Engine, id string) (*WorkflowInstance, error) {
	return eng.GetInstance(ctx, id)
}

// ListInstances lists workflow instances matching the filter.
func ListInstances(ctx context.Context, eng Engine, filter InstanceFilter) ([]*WorkflowInstance, error) {
	return eng.ListInstances(ctx, filter)
}

// Resume resumes a PENDING, WAITING or PAUSED instance.
func Resume(ctx context.Context, eng Engine, id string) (*WorkflowInstance, error) {
	return eng.Resume(ctx, id)
}

// Pause pauses a RUNNING instance at the next step boundary.
func Pause(ctx context.Context, eng Engine, id string) (*WorkflowInstance, error) {
	return eng.Pause(ctx, id)
}

// Cancel permanently cancels an active instance.
func Cancel(ctx context.Context, eng Engine, id, reason string) (*WorkflowInstance, error) {
	return eng.Cancel(ctx, id, reason)
}

// History returns the recorded events of an instance in append order.
func History(ctx context.Context, eng Engine, id string) ([]WorkflowEvent, error) {
	return eng.History(ctx, id)
}
