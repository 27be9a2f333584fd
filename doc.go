// Package stepflow provides a lightweight, embeddable workflow engine
// driven by declarative definitions.
//
// Stepflow is designed for backend services that need multi-step
// business processes — orders, onboarding, provisioning — without
// heavy infrastructure. Workflows are data: a definition names its
// steps, the transitions between them, and the conditions guarding
// both. The engine runs fully in-process and supports multiple
// persistence backends.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. WorkflowDefinition
//  2. Engine
//  3. Action
//  4. FlowBuilder
//  5. EventSink
//
// # WorkflowDefinition
//
// A WorkflowDefinition is a validated, declarative description of a
// workflow: ordered steps, each optionally naming an action, parameters,
// preconditions, retry attempts and a compensation action; plus
// transitions with optional condition expressions. Definitions can be
// built in code with FlowBuilder, parsed from generic maps with
// ParseDefinition, or loaded from YAML with ParseDefinitionYAML.
//
// Condition expressions use a small comparison grammar over instance
// data, e.g. "order.total >= 100" or "user.plan is premium". Parameter
// values render {{path}} placeholders against the same data.
//
// # Engine
//
// The Engine executes definitions and persists instance state. It
// provides APIs to:
//   - start workflows
//   - pause, resume and cancel running instances
//   - query instance state and execution history
//
// Engines can be backed by different storage systems:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//   - Redis
//
// Execution is synchronous: Start and Resume drive the instance until
// it completes, fails, or parks in WAITING. State is persisted after
// every step boundary, and externally requested Pause or Cancel takes
// effect at the next boundary.
//
// # Action
//
// An Action is the executable unit a step invokes:
//
//	type Action interface {
//	    Execute(ctx context.Context, wctx *WorkflowContext) (*ActionResult, error)
//	    CanExecute(ctx context.Context, wctx *WorkflowContext) bool
//	    Name() string
//	    Description() string
//	}
//
// Actions are registered on the engine by name and referenced from
// step definitions. They receive a WorkflowContext snapshot (instance
// data plus rendered parameters) and report success or failure through
// an ActionResult; returned data merges into instance data. An action
// can park its workflow by returning NewWaitError. Built-in actions
// cover delays, logging, data writes, waits and deliberate failures.
//
// When a step fails after exhausting its retries, the engine runs the
// compensation actions of the failed and previously completed steps in
// reverse order, then marks the instance FAILED.
//
// # FlowBuilder
//
// FlowBuilder provides the ergonomic API for defining workflows in code:
//
//	def, err := stepflow.New("ship_order").
//	    Step("reserve", stepflow.WithAction("reserve-stock"),
//	        stepflow.WithCompensation("release-stock")).
//	    Step("charge", stepflow.WithAction("charge-card"),
//	        stepflow.WithRetry(2)).
//	    Step("ship", stepflow.WithAction("create-shipment")).
//	    Transition("reserve", "charge").
//	    Transition("charge", "ship").
//	    Build()
//
// # EventSink
//
// An EventSink observes workflow and step lifecycle events. Sinks
// compose: LoggingSink writes structured logs, BasicMetrics keeps
// in-process counters, CompositeSink fans out to several sinks. The
// engine additionally records a durable per-instance event history
// readable through Engine.History.
package stepflow
