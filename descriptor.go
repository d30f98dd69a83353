package ecs

import "sync"

// Descriptor describes a single component type: its type-id within the
// family parameterized by K, a default constructor, and an optional copy
// constructor used by override_by. There is deliberately no destructor
// function pointer — Go's garbage collector retires component values once
// nothing in a storage references them, matching spec section 1's note that
// the concrete component registry/factory is an external collaborator and
// this library only needs construction and copying hooks.
type Descriptor[K comparable] struct {
	TypeID K
	New    func() any
	Copy   func(value any) any
}

// Registry maps component-type-ids to their descriptors. It is read-mostly
// and built once before any entity store touches it; Register takes a
// write lock, Get reads under RWMutex, so entity stores sharing one
// registry may look descriptors up concurrently (OverrideBy is the store
// operation that does). InitIndex does not consult the registry.
type Registry[K comparable] struct {
	mu          sync.RWMutex
	descriptors map[K]Descriptor[K]
}

// NewRegistry constructs an empty component descriptor registry.
func NewRegistry[K comparable]() *Registry[K] {
	return &Registry[K]{descriptors: make(map[K]Descriptor[K])}
}

// Register adds d to the registry. Registering the same TypeID twice is a
// contract violation (spec section 7, category 1).
func (r *Registry[K]) Register(d Descriptor[K]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[d.TypeID]; exists {
		return ErrComponentAlreadyRegistered
	}
	r.descriptors[d.TypeID] = d
	return nil
}

// Get returns the descriptor registered for typeID, if any.
func (r *Registry[K]) Get(typeID K) (Descriptor[K], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[typeID]
	return d, ok
}
