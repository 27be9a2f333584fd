package engine

import (
	"fmt"
	"sync"

	"github.com/mlind/stepflow/pkg/api"
)

// actionRegistry maps action reference names to implementations. It
// implements api.ActionResolver.
type actionRegistry struct {
	mu     sync.RWMutex
	byName map[string]api.Action
}

func newActionRegistry() *actionRegistry {
	return &actionRegistry{
		byName: make(map[string]api.Action),
	}
}

var _ api.ActionResolver = (*actionRegistry)(nil)

func (r *actionRegistry) Register(name string, action api.Action) error {
	if name == "" {
		return fmt.Errorf("action name is required")
	}
	if action == nil {
		return fmt.Errorf("action %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("action %q already registered", name)
	}
	r.byName[name] = action
	return nil
}

func (r *actionRegistry) Resolve(name string) (api.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.byName[name]
	if !ok {
		return nil, &api.ActionNotFoundError{Name: name}
	}
	return action, nil
}

// definitionRegistry remembers the definitions of started workflows so
// Resume can re-enter the executor without the caller re-supplying the
// document. Keyed by workflow name; re-starting a workflow with the
// same name replaces the stored definition.
type definitionRegistry struct {
	mu     sync.RWMutex
	byName map[string]*api.WorkflowDefinition
}

func newDefinitionRegistry() *definitionRegistry {
	return &definitionRegistry{
		byName: make(map[string]*api.WorkflowDefinition),
	}
}

func (r *definitionRegistry) Put(def *api.WorkflowDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName[def.Name] = def
}

func (r *definitionRegistry) Get(name string) (*api.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byName[name]
	if !ok {
		return nil, &api.DefinitionNotFoundError{WorkflowName: name}
	}
	return def, nil
}
