// Package persistence contains the storage collaborators of the engine:
// the InstanceStore for workflow instance records and the EventStore for
// append-only execution history. In-memory, SQLite and Redis
// implementations ship with the module; all of them serialize nested
// data maps as JSON so records stay inspectable with ordinary tooling.
package persistence

import (
	"context"
	"sort"

	"github.com/mlind/stepflow/pkg/api"
)

// InstanceStore handles storage of workflow instances. The engine calls
// Save after every step boundary, so implementations must upsert.
//
// Stores own their records: Save deep-copies on the way in and Get/List
// return copies, so callers can never mutate persisted state in place.
type InstanceStore interface {
	Save(ctx context.Context, inst *api.WorkflowInstance) error
	// Get returns the instance or an *api.InstanceNotFoundError.
	Get(ctx context.Context, id string) (*api.WorkflowInstance, error)
	// List returns instances matching the filter, oldest first.
	List(ctx context.Context, filter api.InstanceFilter) ([]*api.WorkflowInstance, error)
	// Delete removes a record; deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

func notFound(id string) error {
	return &api.InstanceNotFoundError{InstanceID: id}
}

// matchesFilter applies the payload-level filter fields. The memory and
// Redis stores filter in process; the SQLite store compiles the same
// predicate to a WHERE clause.
func matchesFilter(inst *api.WorkflowInstance, f api.InstanceFilter) bool {
	if f.WorkflowName != "" && inst.WorkflowName != f.WorkflowName {
		return false
	}
	if f.Status != "" && inst.Status != f.Status {
		return false
	}
	if !f.CreatedBefore.IsZero() && !inst.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	if !f.CreatedAfter.IsZero() && !inst.CreatedAt.After(f.CreatedAfter) {
		return false
	}
	return true
}

// applyWindow sorts oldest-first (id as tie-break) and applies
// offset/limit.
func applyWindow(instances []*api.WorkflowInstance, f api.InstanceFilter) []*api.WorkflowInstance {
	sort.Slice(instances, func(i, j int) bool {
		if instances[i].CreatedAt.Equal(instances[j].CreatedAt) {
			return instances[i].ID < instances[j].ID
		}
		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})
	if f.Offset > 0 {
		if f.Offset >= len(instances) {
			return nil
		}
		instances = instances[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(instances) {
		instances = instances[:f.Limit]
	}
	return instances
}
