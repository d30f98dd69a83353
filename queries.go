package ecs

// Go generics do not support variadic type parameters, so the spec's
// get_components<T...>/for_each_component_set<T...> family is implemented
// as a fixed set of arity-specific functions (arity 1 through 4 for
// GetEntityComponents and ForEachComponentSet, arity 1 and 2 for
// GetComponents), the same shape Argus Labs' cardinal query API uses for
// the same reason.

// OptionalComponent is a nullable reference into a storage, returned by
// the GetEntityComponentsN family.
type OptionalComponent[T any] struct {
	Value *T
	Valid bool
}

func optionalOf[K comparable, T any](s *EntityStore[K], e Entity, typeID K) OptionalComponent[T] {
	v, ok := GetComponent[K, T](s, e, typeID)
	return OptionalComponent[T]{Value: v, Valid: ok}
}

// GetEntityComponents1 returns e's component of t1, if any.
func GetEntityComponents1[K comparable, T1 any](s *EntityStore[K], e Entity, t1 K) OptionalComponent[T1] {
	return optionalOf[K, T1](s, e, t1)
}

// GetEntityComponents2 returns e's components of t1 and t2, each
// independently optional.
func GetEntityComponents2[K comparable, T1, T2 any](s *EntityStore[K], e Entity, t1, t2 K) (OptionalComponent[T1], OptionalComponent[T2]) {
	return optionalOf[K, T1](s, e, t1), optionalOf[K, T2](s, e, t2)
}

// GetEntityComponents3 returns e's components of t1, t2, and t3.
func GetEntityComponents3[K comparable, T1, T2, T3 any](s *EntityStore[K], e Entity, t1, t2, t3 K) (OptionalComponent[T1], OptionalComponent[T2], OptionalComponent[T3]) {
	return optionalOf[K, T1](s, e, t1), optionalOf[K, T2](s, e, t2), optionalOf[K, T3](s, e, t3)
}

// GetEntityComponents4 returns e's components of t1..t4.
func GetEntityComponents4[K comparable, T1, T2, T3, T4 any](s *EntityStore[K], e Entity, t1, t2, t3, t4 K) (OptionalComponent[T1], OptionalComponent[T2], OptionalComponent[T3], OptionalComponent[T4]) {
	return optionalOf[K, T1](s, e, t1), optionalOf[K, T2](s, e, t2), optionalOf[K, T3](s, e, t3), optionalOf[K, T4](s, e, t4)
}

// ForEachComponentSetWithEntity1 calls fn for every live entity owning a
// component of t1.
func ForEachComponentSetWithEntity1[K comparable, T1 any](s *EntityStore[K], t1 K, fn func(Entity, *T1)) {
	driver := s.smallestStorage([]K{t1})
	if driver == nil {
		return
	}
	driver.Iterate(func(owner Entity, _ any) bool {
		v1, ok1 := GetComponent[K, T1](s, owner, t1)
		if !ok1 {
			return true
		}
		fn(owner, v1)
		return true
	})
}

// ForEachComponentSet1 is ForEachComponentSetWithEntity1 without the entity.
func ForEachComponentSet1[K comparable, T1 any](s *EntityStore[K], t1 K, fn func(*T1)) {
	ForEachComponentSetWithEntity1(s, t1, func(_ Entity, v1 *T1) { fn(v1) })
}

// ForEachComponentSetWithEntity2 calls fn for every live entity owning
// both t1 and t2.
func ForEachComponentSetWithEntity2[K comparable, T1, T2 any](s *EntityStore[K], t1, t2 K, fn func(Entity, *T1, *T2)) {
	driver := s.smallestStorage([]K{t1, t2})
	if driver == nil {
		return
	}
	driver.Iterate(func(owner Entity, _ any) bool {
		v1, ok1 := GetComponent[K, T1](s, owner, t1)
		if !ok1 {
			return true
		}
		v2, ok2 := GetComponent[K, T2](s, owner, t2)
		if !ok2 {
			return true
		}
		fn(owner, v1, v2)
		return true
	})
}

// ForEachComponentSet2 is ForEachComponentSetWithEntity2 without the entity.
func ForEachComponentSet2[K comparable, T1, T2 any](s *EntityStore[K], t1, t2 K, fn func(*T1, *T2)) {
	ForEachComponentSetWithEntity2(s, t1, t2, func(_ Entity, v1 *T1, v2 *T2) { fn(v1, v2) })
}

// ForEachComponentSetWithEntity3 calls fn for every live entity owning
// t1, t2, and t3.
func ForEachComponentSetWithEntity3[K comparable, T1, T2, T3 any](s *EntityStore[K], t1, t2, t3 K, fn func(Entity, *T1, *T2, *T3)) {
	driver := s.smallestStorage([]K{t1, t2, t3})
	if driver == nil {
		return
	}
	driver.Iterate(func(owner Entity, _ any) bool {
		v1, ok1 := GetComponent[K, T1](s, owner, t1)
		if !ok1 {
			return true
		}
		v2, ok2 := GetComponent[K, T2](s, owner, t2)
		if !ok2 {
			return true
		}
		v3, ok3 := GetComponent[K, T3](s, owner, t3)
		if !ok3 {
			return true
		}
		fn(owner, v1, v2, v3)
		return true
	})
}

// ForEachComponentSet3 is ForEachComponentSetWithEntity3 without the entity.
func ForEachComponentSet3[K comparable, T1, T2, T3 any](s *EntityStore[K], t1, t2, t3 K, fn func(*T1, *T2, *T3)) {
	ForEachComponentSetWithEntity3(s, t1, t2, t3, func(_ Entity, v1 *T1, v2 *T2, v3 *T3) { fn(v1, v2, v3) })
}

// ForEachComponentSetWithEntity4 calls fn for every live entity owning
// t1..t4.
func ForEachComponentSetWithEntity4[K comparable, T1, T2, T3, T4 any](s *EntityStore[K], t1, t2, t3, t4 K, fn func(Entity, *T1, *T2, *T3, *T4)) {
	driver := s.smallestStorage([]K{t1, t2, t3, t4})
	if driver == nil {
		return
	}
	driver.Iterate(func(owner Entity, _ any) bool {
		v1, ok1 := GetComponent[K, T1](s, owner, t1)
		if !ok1 {
			return true
		}
		v2, ok2 := GetComponent[K, T2](s, owner, t2)
		if !ok2 {
			return true
		}
		v3, ok3 := GetComponent[K, T3](s, owner, t3)
		if !ok3 {
			return true
		}
		v4, ok4 := GetComponent[K, T4](s, owner, t4)
		if !ok4 {
			return true
		}
		fn(owner, v1, v2, v3, v4)
		return true
	})
}

// ForEachComponentSet4 is ForEachComponentSetWithEntity4 without the entity.
func ForEachComponentSet4[K comparable, T1, T2, T3, T4 any](s *EntityStore[K], t1, t2, t3, t4 K, fn func(*T1, *T2, *T3, *T4)) {
	ForEachComponentSetWithEntity4(s, t1, t2, t3, t4, func(_ Entity, v1 *T1, v2 *T2, v3 *T3, v4 *T4) { fn(v1, v2, v3, v4) })
}

// Pair2 is a matched component tuple returned by GetComponents2.
type Pair2[T1, T2 any] struct {
	V1 *T1
	V2 *T2
}

// EntityPair2 is Pair2 preceded by the owning entity.
type EntityPair2[T1, T2 any] struct {
	Entity Entity
	V1     *T1
	V2     *T2
}

// GetComponents2 appends, for every live entity owning both t1 and t2, a
// matched tuple to out.
func GetComponents2[K comparable, T1, T2 any](s *EntityStore[K], t1, t2 K, out *[]Pair2[T1, T2]) {
	ForEachComponentSet2(s, t1, t2, func(v1 *T1, v2 *T2) {
		*out = append(*out, Pair2[T1, T2]{V1: v1, V2: v2})
	})
}

// GetComponentsWithEntities2 is GetComponents2 with the owning entity
// prepended to each tuple.
func GetComponentsWithEntities2[K comparable, T1, T2 any](s *EntityStore[K], t1, t2 K, out *[]EntityPair2[T1, T2]) {
	ForEachComponentSetWithEntity2(s, t1, t2, func(e Entity, v1 *T1, v2 *T2) {
		*out = append(*out, EntityPair2[T1, T2]{Entity: e, V1: v1, V2: v2})
	})
}

// Pair1 is a single-component tuple returned by GetComponents1.
type Pair1[T1 any] struct {
	V1 *T1
}

// EntityPair1 is Pair1 preceded by the owning entity.
type EntityPair1[T1 any] struct {
	Entity Entity
	V1     *T1
}

// GetComponents1 appends, for every live entity owning t1, a tuple to out.
func GetComponents1[K comparable, T1 any](s *EntityStore[K], t1 K, out *[]Pair1[T1]) {
	ForEachComponentSet1(s, t1, func(v1 *T1) {
		*out = append(*out, Pair1[T1]{V1: v1})
	})
}

// GetComponentsWithEntities1 is GetComponents1 with the owning entity
// prepended to each tuple.
func GetComponentsWithEntities1[K comparable, T1 any](s *EntityStore[K], t1 K, out *[]EntityPair1[T1]) {
	ForEachComponentSetWithEntity1(s, t1, func(e Entity, v1 *T1) {
		*out = append(*out, EntityPair1[T1]{Entity: e, V1: v1})
	})
}
