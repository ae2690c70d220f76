package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/poiesic/docstore/core"
)

// Registry holds model metadata and implements core.ModelProvider.
// All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*core.Model
}

var _ core.ModelProvider = (*Registry)(nil)

// NewRegistry creates a registry holding models.
func NewRegistry(models ...*core.Model) (*Registry, error) {
	r := &Registry{models: make(map[string]*core.Model)}
	for _, m := range models {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and adds model, replacing any model of the same name.
func (r *Registry) Register(model *core.Model) error {
	if err := core.ValidateModel(model); err != nil {
		return err
	}
	for name, proj := range model.Projections {
		if proj.Name == "" {
			proj.Name = name
		}
		if proj.ModelName == "" {
			proj.ModelName = model.Name
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[model.Name] = model
	return nil
}

// Model returns the named model's metadata.
// Returns ErrUnknownModel if no such model is registered.
func (r *Registry) Model(name string) (*core.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return m, nil
}

// Projection returns the named projection of the named model.
func (r *Registry) Projection(model, name string) (*core.Projection, error) {
	m, err := r.Model(model)
	if err != nil {
		return nil, err
	}
	p, ok := m.Projection(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q on model %q", ErrUnknownProjection, name, model)
	}
	return p, nil
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check verifies that every relationship and projection refers to a
// registered model.
func (r *Registry) Check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range sortedKeys(r.models) {
		m := r.models[name]
		for _, rel := range m.Relationships {
			if _, ok := r.models[rel.Target]; !ok {
				return fmt.Errorf("%w: %q (relationship %s.%s)", ErrUnknownModel, rel.Target, m.Name, rel.Name)
			}
		}
		for _, projName := range sortedKeys(m.Projections) {
			if err := r.checkAttributes(m.Projections[projName].Attributes); err != nil {
				return fmt.Errorf("projection %s.%s: %w", m.Name, projName, err)
			}
		}
	}
	return nil
}

func (r *Registry) checkAttributes(attrs []core.AttributeDescriptor) error {
	for _, attr := range attrs {
		if !attr.Kind.IsRelationship() {
			continue
		}
		if _, ok := r.models[attr.ModelName]; !ok {
			return fmt.Errorf("%w: %q (attribute %s)", ErrUnknownModel, attr.ModelName, attr.Name)
		}
		if err := r.checkAttributes(attr.Attributes); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
