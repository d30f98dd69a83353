package ecs

// CombinedView iterates several entity stores as one logical collection,
// attaching arbitrary per-store extra data (E) without taking ownership of
// any store.
type CombinedView[K comparable, E any] struct {
	entries []combinedEntry[K, E]
}

type combinedEntry[K comparable, E any] struct {
	store *EntityStore[K]
	extra E
}

// NewCombinedView constructs an empty view.
func NewCombinedView[K comparable, E any]() *CombinedView[K, E] {
	return &CombinedView[K, E]{}
}

// Add appends store to the view with its associated extra data.
func (v *CombinedView[K, E]) Add(store *EntityStore[K], extra E) {
	v.entries = append(v.entries, combinedEntry[K, E]{store: store, extra: extra})
}

// Len returns the number of stores in the view.
func (v *CombinedView[K, E]) Len() int {
	return len(v.entries)
}

// CombinedForEachWithEntity1 calls fn, for each store in v in order, once
// per live entity owning t1, passing that store's extra data, the entity,
// and its component.
func CombinedForEachWithEntity1[K comparable, E any, T1 any](v *CombinedView[K, E], t1 K, fn func(extra E, e Entity, c1 *T1)) {
	for _, entry := range v.entries {
		ForEachComponentSetWithEntity1(entry.store, t1, func(e Entity, c1 *T1) {
			fn(entry.extra, e, c1)
		})
	}
}

// CombinedForEach1 is CombinedForEachWithEntity1 without the entity.
func CombinedForEach1[K comparable, E any, T1 any](v *CombinedView[K, E], t1 K, fn func(extra E, c1 *T1)) {
	CombinedForEachWithEntity1(v, t1, func(extra E, _ Entity, c1 *T1) { fn(extra, c1) })
}

// CombinedForEachWithEntity2 is the two-component-type variant of
// CombinedForEachWithEntity1.
func CombinedForEachWithEntity2[K comparable, E any, T1, T2 any](v *CombinedView[K, E], t1, t2 K, fn func(extra E, e Entity, c1 *T1, c2 *T2)) {
	for _, entry := range v.entries {
		ForEachComponentSetWithEntity2(entry.store, t1, t2, func(e Entity, c1 *T1, c2 *T2) {
			fn(entry.extra, e, c1, c2)
		})
	}
}

// CombinedForEach2 is CombinedForEachWithEntity2 without the entity.
func CombinedForEach2[K comparable, E any, T1, T2 any](v *CombinedView[K, E], t1, t2 K, fn func(extra E, c1 *T1, c2 *T2)) {
	CombinedForEachWithEntity2(v, t1, t2, func(extra E, _ Entity, c1 *T1, c2 *T2) { fn(extra, c1, c2) })
}
