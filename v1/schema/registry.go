package schema

import (
	"errors"
	"fmt"
	"sync"
)

// Registry collects the models of a process. It is built at startup and
// read concurrently afterwards.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
	order  []string
}

// Default is the process-wide registry used by the package-level helpers.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Register adds models to the registry. Registration is all-or-nothing.
func (r *Registry) Register(models ...*Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(models))
	for _, m := range models {
		if m == nil {
			return fmt.Errorf("%w: nil model", ErrInvalidModel)
		}
		if _, ok := r.models[m.name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateModel, m.name)
		}
		if _, ok := seen[m.name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateModel, m.name)
		}
		seen[m.name] = struct{}{}
	}
	for _, m := range models {
		r.models[m.name] = m
		r.order = append(r.order, m.name)
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(models ...*Model) {
	if err := r.Register(models...); err != nil {
		panic(err)
	}
}

// Model looks up a model by name.
func (r *Registry) Model(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return m, nil
}

// Models returns the registered models in registration order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Model, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}

// Validate checks cross-model invariants: every reference field must target
// a registered model whose primary key carries the reference's key type.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.order {
		for _, f := range r.models[name].fields {
			if f.typ != Reference {
				continue
			}
			target, ok := r.models[f.references]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s references %q", ErrUnknownModel, f, f.references))
				continue
			}
			if pk := target.primary.ValueType(); pk != f.keyType {
				errs = append(errs, fmt.Errorf("%w: %s carries %v keys but %s is %v",
					ErrInvalidModel, f, f.keyType, target.primary, pk))
			}
		}
	}
	return errors.Join(errs...)
}

// Register adds models to the Default registry.
func Register(models ...*Model) error { return Default.Register(models...) }

// MustRegister adds models to the Default registry and panics on error.
func MustRegister(models ...*Model) { Default.MustRegister(models...) }

// Lookup finds a model in the Default registry.
func Lookup(name string) (*Model, error) { return Default.Model(name) }
