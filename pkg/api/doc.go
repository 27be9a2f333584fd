// Package api contains the core building blocks used by the stepflow
// workflow engine: definitions, instances, the lifecycle state machine,
// actions, the error taxonomy and the event sink interface.
//
// Most users interact with the higher-level stepflow package, which
// re-exports selected types and helpers from this package. The api
// package is intended for custom integrations or contributors extending
// the engine itself.
//
// # Workflow Definitions
//
// A WorkflowDefinition describes a workflow as a set of named steps and
// the conditional transitions between them. Definitions arrive as Go
// structs, native maps, JSON or YAML documents; ParseDefinition and
// ParseDefinitionYAML normalize and validate all of these into the same
// immutable form. Structural violations are reported as
// InvalidDefinitionError values naming the offending field.
//
// # Instances and the State Machine
//
// A WorkflowInstance is one run of a definition. Instances move through
// a fixed lifecycle: PENDING, RUNNING, WAITING and PAUSED are active
// states; COMPLETED, FAILED and CANCELLED are terminal. Status encodes
// the legality table and WorkflowInstance.TransitionTo enforces it;
// illegal moves surface as InvalidStateTransitionError and terminal
// instances are immutable.
//
// # Actions
//
// An Action is the pluggable unit of work invoked once per step. It
// receives an immutable WorkflowContext (a snapshot of accumulated data
// plus rendered step parameters) and reports an ActionResult. Returning
// NewWaitError parks the instance in WAITING until Engine.Resume is
// called, for example after a manual approval.
//
// # Observability
//
// The EventSink interface receives lifecycle callbacks from the engine.
// Ready-made implementations cover structured logging (LoggingSink,
// built on log/slog), in-memory counters (BasicMetrics) and fan-out
// (NewCompositeSink). WorkflowEvent records form the persistent
// execution history exposed through Engine.History.
package api
