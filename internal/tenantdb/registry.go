package tenantdb

import "sync"

// Registry holds the schema entities every tenant database must contain.
// Modules register their entities during startup; the first connection
// acquisition freezes the registry so the schema set is identical for
// every tenant created afterwards.
type Registry struct {
	mu       sync.Mutex
	entities []any
	frozen   bool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends entities to the registry. Returns ErrRegistryFrozen
// once a tenant connection has been created.
func (r *Registry) Register(entities ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	r.entities = append(r.entities, entities...)
	return nil
}

// Entities freezes the registry and returns the registered schema set.
func (r *Registry) Entities() []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frozen = true
	return append([]any(nil), r.entities...)
}
