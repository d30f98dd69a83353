package ecs

import (
	"reflect"

	"github.com/gameraccoon/raccoon-ecs-go/ecs/storage"
)

// EntityStoreOption configures an EntityStore at construction time,
// continuing the teacher's functional-options pattern (WorldOption).
type EntityStoreOption[K comparable] func(*EntityStore[K])

// WithEntityGenerator overrides the default recycling generator, e.g. with
// NewIncrementalGenerator().
func WithEntityGenerator[K comparable](g EntityGenerator) EntityStoreOption[K] {
	return func(s *EntityStore[K]) { s.generator = g }
}

// EntityStore owns a set of live entities and, for every registered
// component type that has at least one live instance, a dense storage for
// that type. K is the component-type-id parameter shared by the whole type
// family (spec section 6); it need only be comparable.
type EntityStore[K comparable] struct {
	registry    *Registry[K]
	generator   EntityGenerator
	liveEntities []Entity
	entityToRow  map[uint32]int
	stores       map[K]*storage.Storage[Entity]
	scheduled    []scheduledAction[K]
}

// NewEntityStore constructs an empty store backed by registry. registry
// may be shared by several stores; construction and InitIndex on two
// stores sharing one registry are race-free (spec section 5).
func NewEntityStore[K comparable](registry *Registry[K], opts ...EntityStoreOption[K]) *EntityStore[K] {
	s := &EntityStore[K]{
		registry:    registry,
		generator:   NewRecyclingGenerator(),
		entityToRow: make(map[uint32]int),
		stores:      make(map[K]*storage.Storage[Entity]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddEntity allocates a fresh, live Entity.
func (s *EntityStore[K]) AddEntity() Entity {
	e := s.generator.Generate()
	s.insertLive(e)
	return e
}

// AddExistingUnsafe inserts a caller-supplied Entity that must not already
// be live in this store. Used for redoable commands that replay a
// previously generated id.
func (s *EntityStore[K]) AddExistingUnsafe(e Entity) {
	s.generator.MarkExisting(e)
	s.insertLive(e)
}

func (s *EntityStore[K]) insertLive(e Entity) {
	s.entityToRow[e.RawID] = len(s.liveEntities)
	s.liveEntities = append(s.liveEntities, e)
}

// HasEntity reports whether e is currently live in this store.
func (s *EntityStore[K]) HasEntity(e Entity) bool {
	row, ok := s.entityToRow[e.RawID]
	if !ok {
		return false
	}
	return s.liveEntities[row] == e
}

// HasAnyEntities reports whether the store has at least one live entity.
func (s *EntityStore[K]) HasAnyEntities() bool {
	return len(s.liveEntities) > 0
}

// Count returns the number of live entities.
func (s *EntityStore[K]) Count() int {
	return len(s.liveEntities)
}

// RemoveEntity destroys e: every component it owns is removed from its
// storage (swap-remove) and its row in liveEntities is swap-removed. No-op
// if e is not live. Reports whether e was removed.
func (s *EntityStore[K]) RemoveEntity(e Entity) bool {
	if !s.HasEntity(e) {
		return false
	}

	for _, st := range s.stores {
		st.Remove(e)
	}

	row := s.entityToRow[e.RawID]
	last := len(s.liveEntities) - 1
	if row != last {
		moved := s.liveEntities[last]
		s.liveEntities[row] = moved
		s.entityToRow[moved.RawID] = row
	}
	s.liveEntities = s.liveEntities[:last]
	delete(s.entityToRow, e.RawID)

	s.generator.Release(e)
	return true
}

// InitIndex ensures storage for typeID exists, even if it ends up empty.
// Idempotent.
func (s *EntityStore[K]) InitIndex(typeID K) {
	s.storageFor(typeID)
}

func (s *EntityStore[K]) storageFor(typeID K) *storage.Storage[Entity] {
	st, ok := s.stores[typeID]
	if !ok {
		st = storage.New[Entity]()
		s.stores[typeID] = st
	}
	return st
}

// insertOrReplace inserts value for e under typeID, replacing any existing
// component rather than corrupting storage invariants if the caller
// re-adds a type it already attached — the spec calls double-add a
// contract violation (debug-assert territory) but a release build must
// remain memory-safe, so this upserts instead of appending a duplicate
// sparse entry.
func (s *EntityStore[K]) insertOrReplace(e Entity, typeID K, value any) {
	st := s.storageFor(typeID)
	if st.Has(e) {
		st.Remove(e)
	}
	st.Insert(e, value)
}

// DoesEntityHaveComponent reports whether e currently owns a component of
// typeID.
func (s *EntityStore[K]) DoesEntityHaveComponent(e Entity, typeID K) bool {
	st, ok := s.stores[typeID]
	if !ok {
		return false
	}
	return st.Has(e)
}

// RemoveComponent removes e's component of typeID, if any. No-op
// otherwise. Reports whether a component was removed.
func (s *EntityStore[K]) RemoveComponent(e Entity, typeID K) bool {
	st, ok := s.stores[typeID]
	if !ok {
		return false
	}
	return st.Remove(e)
}

// GetMatchingEntitiesCount returns, in O(1), the number of live entities
// owning a component of typeID.
func (s *EntityStore[K]) GetMatchingEntitiesCount(typeID K) int {
	st, ok := s.stores[typeID]
	if !ok {
		return 0
	}
	return st.Len()
}

// ComponentRef is a type-erased (type-id, value) pair, used by
// GetAllEntityComponents.
type ComponentRef[K comparable] struct {
	TypeID K
	Value  any
}

// GetAllEntityComponents returns every (type_id, value) pair e owns. Order
// is unspecified. Returns nil if e is not live.
func (s *EntityStore[K]) GetAllEntityComponents(e Entity) []ComponentRef[K] {
	if !s.HasEntity(e) {
		return nil
	}
	var out []ComponentRef[K]
	for typeID, st := range s.stores {
		if v, ok := st.Get(e); ok {
			out = append(out, ComponentRef[K]{TypeID: typeID, Value: v})
		}
	}
	return out
}

// GetEntitiesHavingComponents returns every live entity owning all of
// typeIDs. Any unregistered type makes the result empty.
func (s *EntityStore[K]) GetEntitiesHavingComponents(typeIDs []K) []Entity {
	driver := s.smallestStorage(typeIDs)
	if driver == nil {
		return nil
	}
	var out []Entity
	driver.Iterate(func(owner Entity, _ any) bool {
		for _, t := range typeIDs {
			st := s.stores[t]
			if st == nil || !st.Has(owner) {
				return true
			}
		}
		out = append(out, owner)
		return true
	})
	return out
}

// smallestStorage picks, among typeIDs, the storage with the fewest
// entries to drive a multi-type scan (spec 4.D's iteration algorithm).
// Returns nil if any type has no storage at all.
func (s *EntityStore[K]) smallestStorage(typeIDs []K) *storage.Storage[Entity] {
	if len(typeIDs) == 0 {
		return nil
	}
	var best *storage.Storage[Entity]
	for _, t := range typeIDs {
		st, ok := s.stores[t]
		if !ok {
			return nil
		}
		if best == nil || st.Len() < best.Len() {
			best = st
		}
	}
	return best
}

// OverrideBy destructively deep-copies other into s: self's prior contents
// are discarded, every live entity in other is duplicated with its exact
// (raw_id, version), and every component is copied exactly once. A
// registered descriptor's Copy constructor is used when present; otherwise
// the component is copied by reflecting through the *T every component is
// stored as (see SetComponent/AddComponent) and allocating a fresh T with
// the same field values, so the copy never shares a pointer with other.
func (s *EntityStore[K]) OverrideBy(other *EntityStore[K]) {
	s.liveEntities = nil
	s.entityToRow = make(map[uint32]int)
	s.stores = make(map[K]*storage.Storage[Entity])
	s.generator = other.generator.Clone()

	for _, e := range other.liveEntities {
		s.insertLive(e)
	}

	for typeID, srcStore := range other.stores {
		dstStore := s.storageFor(typeID)
		desc, hasDesc := s.lookupDescriptor(typeID)
		srcStore.Iterate(func(owner Entity, value any) bool {
			var copied any
			switch {
			case hasDesc && desc.Copy != nil:
				copied = desc.Copy(value)
			default:
				copied = copyByReflection(value)
			}
			dstStore.Insert(owner, copied)
			return true
		})
	}
}

// copyByReflection allocates a new value of value's pointee type and copies
// value's fields into it. value must be a pointer, which every stored
// component is by construction; non-pointer values pass through unchanged.
func copyByReflection(value any) any {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return value
	}
	dst := reflect.New(rv.Type().Elem())
	dst.Elem().Set(rv.Elem())
	return dst.Interface()
}

func (s *EntityStore[K]) lookupDescriptor(typeID K) (Descriptor[K], bool) {
	if s.registry == nil {
		return Descriptor[K]{}, false
	}
	return s.registry.Get(typeID)
}

// TransferEntityTo moves e and all its components out of s into other.
// Returns the entity as it now appears in other and whether e was live in
// s. The entity is re-created in other through other.AddEntity, so it gets
// a fresh id from other's generator; e's raw_id and version are not
// carried over, even when that raw_id is free in other.
func (s *EntityStore[K]) TransferEntityTo(other *EntityStore[K], e Entity) (Entity, bool) {
	if !s.HasEntity(e) {
		return Entity{}, false
	}

	carried := make(map[K]any, len(s.stores))
	for typeID, st := range s.stores {
		if v, ok := st.Get(e); ok {
			carried[typeID] = v
			st.Remove(e)
		}
	}

	row := s.entityToRow[e.RawID]
	last := len(s.liveEntities) - 1
	if row != last {
		moved := s.liveEntities[last]
		s.liveEntities[row] = moved
		s.entityToRow[moved.RawID] = row
	}
	s.liveEntities = s.liveEntities[:last]
	delete(s.entityToRow, e.RawID)
	s.generator.Release(e)

	dest := other.AddEntity()
	for typeID, v := range carried {
		other.storageFor(typeID).Insert(dest, v)
	}
	return dest, true
}

// MoveFrom takes over other's storage buffers without touching any
// individual component: slice and map headers are reassigned, and other is
// left empty. Mirrors a C++ move-assign.
func (s *EntityStore[K]) MoveFrom(other *EntityStore[K]) {
	s.registry = other.registry
	s.generator = other.generator
	s.liveEntities = other.liveEntities
	s.entityToRow = other.entityToRow
	s.stores = other.stores
	s.scheduled = other.scheduled

	other.generator = NewRecyclingGenerator()
	other.liveEntities = nil
	other.entityToRow = make(map[uint32]int)
	other.stores = make(map[K]*storage.Storage[Entity])
	other.scheduled = nil
}

// AddComponent constructs a default T for e and attaches it under typeID,
// returning a pointer to the stored value. Fails if e is not live.
func AddComponent[K comparable, T any](s *EntityStore[K], e Entity, typeID K) (*T, error) {
	if !s.HasEntity(e) {
		return nil, ErrEntityNotLive
	}
	v := new(T)
	s.insertOrReplace(e, typeID, v)
	return v, nil
}

// SetComponent is like AddComponent but attaches a caller-provided value
// instead of a zero-constructed one.
func SetComponent[K comparable, T any](s *EntityStore[K], e Entity, typeID K, value T) (*T, error) {
	if !s.HasEntity(e) {
		return nil, ErrEntityNotLive
	}
	v := &value
	s.insertOrReplace(e, typeID, v)
	return v, nil
}

// GetComponent returns a pointer to e's component of typeID and T, if
// present. The second return is false if e lacks that component or the
// stored value is not a *T.
func GetComponent[K comparable, T any](s *EntityStore[K], e Entity, typeID K) (*T, bool) {
	st, ok := s.stores[typeID]
	if !ok {
		return nil, false
	}
	v, ok := st.Get(e)
	if !ok {
		return nil, false
	}
	ptr, ok := v.(*T)
	return ptr, ok
}
