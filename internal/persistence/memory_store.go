package persistence

import (
	"context"
	"sync"

	"github.com/mlind/stepflow/pkg/api"
)

// InMemoryStore is a goroutine-safe InstanceStore backed by a map. It
// is the default store for embedded and test use.
type InMemoryStore struct {
	mu        sync.RWMutex
	instances map[string]*api.WorkflowInstance
}

var _ InstanceStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		instances: make(map[string]*api.WorkflowInstance),
	}
}

func (s *InMemoryStore) Save(ctx context.Context, inst *api.WorkflowInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.instances[inst.ID] = inst.Clone()
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (*api.WorkflowInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[id]
	if !ok {
		return nil, notFound(id)
	}
	return inst.Clone(), nil
}

func (s *InMemoryStore) List(ctx context.Context, filter api.InstanceFilter) ([]*api.WorkflowInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.WorkflowInstance
	for _, inst := range s.instances {
		if matchesFilter(inst, filter) {
			result = append(result, inst.Clone())
		}
	}
	return applyWindow(result, filter), nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.instances, id)
	return nil
}

func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.instances[id]
	return ok, nil
}

// MemoryEventStore is a goroutine-safe in-memory EventStore.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events map[string][]api.WorkflowEvent
}

var _ EventStore = (*MemoryEventStore)(nil)

// NewMemoryEventStore creates an empty MemoryEventStore.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		events: make(map[string][]api.WorkflowEvent),
	}
}

func (s *MemoryEventStore) AppendEvent(ctx context.Context, ev api.WorkflowEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.InstanceID] = append(s.events[ev.InstanceID], ev)
	return nil
}

func (s *MemoryEventStore) ListEvents(ctx context.Context, instanceID string) ([]api.WorkflowEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.events[instanceID]
	out := make([]api.WorkflowEvent, len(evs))
	copy(out, evs)
	return out, nil
}
