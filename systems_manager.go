package ecs

import (
	"context"
	"sync"
	"time"
)

// AccessMode indicates whether a system's component filter entry is
// read-only or mutating.
type AccessMode uint8

const (
	AccessRead AccessMode = iota
	AccessWrite
)

// System is user-supplied tick logic, constructed with whatever
// dependencies it needs (commonly a ResourceContainer and one or more
// EntityStore pointers) before being registered.
type System interface {
	Update(ctx context.Context)
}

// ComponentFilter declares, for one system, the component types it reads
// and the ones it writes. The scheduler uses this purely for conflict
// inference; it is also available to the system itself for iteration.
type ComponentFilter[K comparable] struct {
	Reads  []K
	Writes []K
}

type systemRegistration[K comparable] struct {
	name      string
	system    System
	filter    ComponentFilter[K]
	goesAfter []string
}

// RegisterOption configures one system registration.
type RegisterOption[K comparable] func(*systemRegistration[K])

// GoesAfter declares an explicit ordering constraint: this system must not
// start until every named system has finished.
func GoesAfter[K comparable](names ...string) RegisterOption[K] {
	return func(r *systemRegistration[K]) {
		r.goesAfter = append(r.goesAfter, names...)
	}
}

// SystemsManagerOption configures a SystemsManager at construction.
type SystemsManagerOption[K comparable] func(*SystemsManager[K])

// WithManagerLogger overrides the manager's logger.
func WithManagerLogger[K comparable](logger Logger) SystemsManagerOption[K] {
	return func(m *SystemsManager[K]) { m.logger = logger }
}

// WithInstrumentation wires a tick observer chain (logging, Prometheus,
// SigNoz, or a caller-supplied TickObserver) built from cfg. The chain is
// assembled during Init, after every SystemsManagerOption has run, so it
// always sees the manager's final logger regardless of option order.
func WithInstrumentation[K comparable](cfg InstrumentationConfig) SystemsManagerOption[K] {
	return func(m *SystemsManager[K]) { m.instrumentation = cfg }
}

// SystemsManager registers systems with declared component filters and
// ordering constraints, builds the dependency graph (4.H) from them, and
// dispatches runnable systems to a thread pool each tick, honoring the
// concurrency requirement that any two systems running concurrently have
// disjoint write sets and no reader/writer intersection.
type SystemsManager[K comparable] struct {
	registrations []*systemRegistration[K]
	nameToIndex   map[string]int

	graph Graph
	pool  *Pool

	logger          Logger
	instrumentation InstrumentationConfig
	observer        TickObserver
	tickIndex       uint64

	initialized bool
}

// NewSystemsManager constructs an empty, uninitialized manager.
func NewSystemsManager[K comparable](opts ...SystemsManagerOption[K]) *SystemsManager[K] {
	m := &SystemsManager[K]{
		nameToIndex: make(map[string]int),
		logger:      noopLogger{},
		observer:    noopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds system under name with the given component filter.
// Registering the same name twice is a contract violation.
func (m *SystemsManager[K]) Register(name string, system System, filter ComponentFilter[K], opts ...RegisterOption[K]) error {
	if _, exists := m.nameToIndex[name]; exists {
		return ErrDuplicateSystemName
	}
	reg := &systemRegistration[K]{name: name, system: system, filter: filter}
	for _, opt := range opts {
		opt(reg)
	}
	m.nameToIndex[name] = len(m.registrations)
	m.registrations = append(m.registrations, reg)
	return nil
}

// Init builds the dependency graph from explicit goes_after edges plus
// inferred write/write and read/write conflict edges between earlier- and
// later-registered systems, finalizes it (rejecting cycles), and starts
// workerCount pool workers.
func (m *SystemsManager[K]) Init(workerCount int) error {
	n := len(m.registrations)
	m.graph.InitNodes(n)

	for i, reg := range m.registrations {
		for _, depName := range reg.goesAfter {
			if j, ok := m.nameToIndex[depName]; ok {
				m.graph.AddDependency(j, i)
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if accessConflicts(m.registrations[i].filter, m.registrations[j].filter) {
				m.graph.AddDependency(i, j)
			}
		}
	}

	if err := m.graph.Finalize(); err != nil {
		return err
	}

	m.pool = NewPool(workerCount)
	m.observer = buildObserverChain(m.logger, m.instrumentation)
	m.initialized = true
	return nil
}

// accessConflicts reports whether a and b's declared component-access
// sets share a type with at least one Write.
func accessConflicts[K comparable](a, b ComponentFilter[K]) bool {
	aWrites := toSet(a.Writes)
	bAll := union(b.Reads, b.Writes)
	for t := range aWrites {
		if _, ok := bAll[t]; ok {
			return true
		}
	}
	bWrites := toSet(b.Writes)
	aAll := union(a.Reads, a.Writes)
	for t := range bWrites {
		if _, ok := aAll[t]; ok {
			return true
		}
	}
	return false
}

func toSet[K comparable](items []K) map[K]struct{} {
	set := make(map[K]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func union[K comparable](a, b []K) map[K]struct{} {
	set := make(map[K]struct{}, len(a)+len(b))
	for _, item := range a {
		set[item] = struct{}{}
	}
	for _, item := range b {
		set[item] = struct{}{}
	}
	return set
}

const tickGroup = 0

// Update runs one tick: a fresh tracer drives dispatch of every ready
// system to the pool; each system's finalizer finishes its node and
// re-enters the dispatch loop, submitting newly-ready systems, until the
// tracer reports every node Done.
func (m *SystemsManager[K]) Update(ctx context.Context) error {
	if !m.initialized {
		return ErrManagerNotInitialized
	}

	tracer := NewTracer(&m.graph)
	submitted := make([]bool, len(m.registrations))

	tickStart := time.Now()
	var summariesMu sync.Mutex
	summaries := make([]SystemSummary, len(m.registrations))

	var dispatch func()
	dispatch = func() {
		for _, v := range tracer.GetNextSystemsToRun() {
			if submitted[v] {
				continue
			}
			submitted[v] = true
			tracer.RunSystem(v)

			node := v
			reg := m.registrations[node]
			m.pool.Submit(tickGroup, func() any {
				start := time.Now()
				reg.system.Update(ctx)
				summariesMu.Lock()
				summaries[node] = SystemSummary{Name: reg.name, Duration: time.Since(start)}
				summariesMu.Unlock()
				return node
			}, func(any) {
				tracer.FinishSystem(node)
				dispatch()
			})
		}
	}

	dispatch()
	m.pool.FinalizeTasks(tickGroup)

	m.tickIndex++
	m.observer.TickCompleted(TickSummary{
		Tick:     m.tickIndex,
		Duration: time.Since(tickStart),
		Systems:  summaries,
	})
	return nil
}

// Close stops the underlying thread pool.
func (m *SystemsManager[K]) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
}
