package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mlind/stepflow/internal/persistence"
	"github.com/mlind/stepflow/pkg/api"
)

// engineImpl is a synchronous, in-process engine implementation.
type engineImpl struct {
	instances   persistence.InstanceStore
	events      persistence.EventStore
	definitions *definitionRegistry
	actions     *actionRegistry
	sink        api.EventSink
	logger      *slog.Logger

	strictPreconditions bool
	retryBackoff        time.Duration
}

// Config describes how to construct an engine. Zero values fall back
// to an in-memory instance store, an in-memory event store, a noop
// sink and slog.Default().
type Config struct {
	Stores persistence.Stores
	Sink   api.EventSink
	Logger *slog.Logger

	// StrictPreconditions fails a step whose preconditions do not hold
	// instead of skipping it.
	StrictPreconditions bool

	// RetryBackoff is the fixed delay between retry attempts of a
	// failing step. Zero retries immediately.
	RetryBackoff time.Duration
}

// NewEngineWithConfig creates a new Engine using the given configuration.
func NewEngineWithConfig(cfg Config) api.Engine {
	instances := cfg.Stores.Instances
	if instances == nil {
		instances = persistence.NewInMemoryStore()
	}
	events := cfg.Stores.Events
	if events == nil {
		events = persistence.NewMemoryEventStore()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = api.NoopSink{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &engineImpl{
		instances:           instances,
		events:              events,
		definitions:         newDefinitionRegistry(),
		actions:             newActionRegistry(),
		sink:                sink,
		logger:              logger,
		strictPreconditions: cfg.StrictPreconditions,
		retryBackoff:        cfg.RetryBackoff,
	}
}

// NewInMemoryEngine returns an engine with purely in-memory storage.
func NewInMemoryEngine() api.Engine {
	return NewEngineWithConfig(Config{})
}

// NewInMemoryEngineWithSink is NewInMemoryEngine with an event sink.
func NewInMemoryEngineWithSink(sink api.EventSink) api.Engine {
	return NewEngineWithConfig(Config{Sink: sink})
}

// NewSQLiteEngine returns an engine persisting instances and history in
// the given SQLite database.
func NewSQLiteEngine(db *sql.DB) (api.Engine, error) {
	inst, err := persistence.NewSQLiteInstanceStore(db)
	if err != nil {
		return nil, err
	}
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfig(Config{
		Stores: persistence.Stores{Instances: inst, Events: events},
	}), nil
}

// NewSQLiteEngineWithSink is NewSQLiteEngine with an event sink.
func NewSQLiteEngineWithSink(db *sql.DB, sink api.EventSink) (api.Engine, error) {
	inst, err := persistence.NewSQLiteInstanceStore(db)
	if err != nil {
		return nil, err
	}
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfig(Config{
		Stores: persistence.Stores{Instances: inst, Events: events},
		Sink:   sink,
	}), nil
}

// NewRedisEngine returns an engine persisting instances in Redis.
// History stays in memory; pass a Config for full control.
func NewRedisEngine(client *redis.Client) api.Engine {
	return NewEngineWithConfig(Config{
		Stores: persistence.Stores{
			Instances: persistence.NewRedisInstanceStore(client, "stepflow:"),
		},
	})
}

// NewRedisEngineWithSink is NewRedisEngine with an event sink.
func NewRedisEngineWithSink(client *redis.Client, sink api.EventSink) api.Engine {
	return NewEngineWithConfig(Config{
		Stores: persistence.Stores{
			Instances: persistence.NewRedisInstanceStore(client, "stepflow:"),
		},
		Sink: sink,
	})
}

func (e *engineImpl) executor() *executor {
	return &executor{
		store:               e.instances,
		events:              e.events,
		sink:                e.sink,
		logger:              e.logger,
		resolver:            e.actions,
		strictPreconditions: e.strictPreconditions,
		retryBackoff:        e.retryBackoff,
	}
}

func (e *engineImpl) RegisterAction(name string, action api.Action) error {
	return e.actions.Register(name, action)
}

func (e *engineImpl) Start(ctx context.Context, instanceID string, def *api.WorkflowDefinition, input map[string]any) (*api.WorkflowInstance, error) {
	validated, err := api.ParseDefinition(def)
	if err != nil {
		return nil, err
	}
	e.definitions.Put(validated)

	if instanceID == "" {
		instanceID = uuid.New().String()
	}

	now := time.Now().UTC()
	inst := &api.WorkflowInstance{
		ID:              instanceID,
		WorkflowName:    validated.Name,
		WorkflowVersion: validated.Version,
		Status:          api.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	inst.MergeData(input)

	if err := e.instances.Save(ctx, inst); err != nil {
		return nil, err
	}

	x := e.executor()
	e.sink.OnWorkflowStarted(ctx, inst)
	x.record(ctx, inst, api.EventWorkflowStarted, "", "")

	if err := inst.TransitionTo(api.StatusRunning); err != nil {
		return inst, err
	}
	if err := e.instances.Save(ctx, inst); err != nil {
		return inst, err
	}

	return x.run(ctx, validated, inst)
}

func (e *engineImpl) Resume(ctx context.Context, instanceID string) (*api.WorkflowInstance, error) {
	inst, err := e.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	switch inst.Status {
	case api.StatusPending, api.StatusWaiting, api.StatusPaused:
	default:
		return nil, &api.InvalidWorkflowStateError{
			InstanceID: instanceID,
			Status:     inst.Status,
			Op:         "resume",
		}
	}

	def, err := e.definitions.Get(inst.WorkflowName)
	if err != nil {
		return nil, err
	}

	if err := inst.TransitionTo(api.StatusRunning); err != nil {
		return inst, err
	}
	if err := e.instances.Save(ctx, inst); err != nil {
		return inst, err
	}

	x := e.executor()
	x.record(ctx, inst, api.EventWorkflowResumed, inst.CurrentStep, "")
	return x.run(ctx, def, inst)
}

func (e *engineImpl) Pause(ctx context.Context, instanceID string) (*api.WorkflowInstance, error) {
	inst, err := e.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if err := inst.TransitionTo(api.StatusPaused); err != nil {
		return nil, err
	}
	if err := e.instances.Save(ctx, inst); err != nil {
		return inst, err
	}
	e.executor().record(ctx, inst, api.EventWorkflowPaused, inst.CurrentStep, "")
	return inst, nil
}

func (e *engineImpl) Cancel(ctx context.Context, instanceID string, reason string) (*api.WorkflowInstance, error) {
	inst, err := e.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if err := inst.TransitionTo(api.StatusCancelled); err != nil {
		return nil, err
	}
	inst.ErrorMessage = reason
	if err := e.instances.Save(ctx, inst); err != nil {
		return inst, err
	}
	e.sink.OnWorkflowCancelled(ctx, inst, reason)
	e.executor().record(ctx, inst, api.EventWorkflowCancelled, inst.CurrentStep, reason)
	return inst, nil
}

func (e *engineImpl) GetInstance(ctx context.Context, instanceID string) (*api.WorkflowInstance, error) {
	return e.instances.Get(ctx, instanceID)
}

func (e *engineImpl) ListInstances(ctx context.Context, filter api.InstanceFilter) ([]*api.WorkflowInstance, error) {
	return e.instances.List(ctx, filter)
}

func (e *engineImpl) History(ctx context.Context, instanceID string) ([]api.WorkflowEvent, error) {
	if _, err := e.instances.Get(ctx, instanceID); err != nil {
		return nil, err
	}
	return e.events.ListEvents(ctx, instanceID)
}
