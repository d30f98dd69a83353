package ecs

import (
	"sync"
	"sync/atomic"
)

// taskFunc is a type-erased task body; its return value is handed to the
// task's finalizer unchanged (spec 9's "any"/type-erased task result).
type taskFunc func() any

// finalizerFunc receives a completed task's result. May be nil.
type finalizerFunc func(any)

type poolTask struct {
	groupID   int
	body      taskFunc
	finalizer finalizerFunc
}

type finalizedResult struct {
	finalizer finalizerFunc
	result    any
}

// taskGroup tracks outstanding work for one group: pending counts tasks
// submitted but not yet finalized; finalizers holds completed tasks
// waiting to be drained on a FinalizeTasks caller's goroutine.
type taskGroup struct {
	pending    int64
	finalizers *Stack[finalizedResult]
}

// PoolOption configures a Pool at construction.
type PoolOption func(*Pool)

// Pool is a two-stage thread pool: fixed workers execute task bodies
// pulled from a lock-free stack; finalizers run serially on whichever
// goroutine calls FinalizeTasks for their group. Completed tasks wait on a
// per-group lock-free stack, so finalizers are drained most recently
// completed first; completion order is not preserved. Task dispatch order
// across workers is unspecified.
type Pool struct {
	tasks *Stack[*poolTask]

	mu   sync.Mutex
	cond *sync.Cond

	groupsMu sync.Mutex
	groups   map[int]*taskGroup

	closed    atomic.Bool
	closeOnce sync.Once
	workers   sync.WaitGroup
}

// NewPool constructs a pool and immediately spawns workerCount workers.
func NewPool(workerCount int, opts ...PoolOption) *Pool {
	p := newDeferredPool(opts...)
	p.SpawnWorkers(workerCount)
	return p
}

// NewDeferredPool constructs a pool with no workers yet; callers spawn
// them later with SpawnWorkers, mirroring spec 4.G's spawn_threads.
func NewDeferredPool(opts ...PoolOption) *Pool {
	return newDeferredPool(opts...)
}

func newDeferredPool(opts ...PoolOption) *Pool {
	p := &Pool{
		tasks:  NewStack[*poolTask](),
		groups: make(map[int]*taskGroup),
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SpawnWorkers adds n more workers to the pool.
func (p *Pool) SpawnWorkers(n int) {
	for i := 0; i < n; i++ {
		p.workers.Add(1)
		go p.workerLoop()
	}
}

// Submit enqueues a task under groupID. finalizer may be nil.
func (p *Pool) Submit(groupID int, body taskFunc, finalizer finalizerFunc) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	g := p.groupFor(groupID)
	atomic.AddInt64(&g.pending, 1)
	p.tasks.PushFront(&poolTask{groupID: groupID, body: body, finalizer: finalizer})
	p.wake()
	return nil
}

// FinalizeTasks blocks the calling goroutine until every task and every
// finalizer submitted to groupID has completed, draining finalizers on
// the calling goroutine itself. Tasks submitted from inside a running
// finalizer of the same group extend the group; FinalizeTasks only
// returns once the group is truly empty.
func (p *Pool) FinalizeTasks(groupID int) {
	g := p.groupFor(groupID)
	for atomic.LoadInt64(&g.pending) > 0 {
		fr, ok := g.finalizers.TryPopFront()
		if !ok {
			p.waitForGroupActivity(g)
			continue
		}
		if fr.finalizer != nil {
			fr.finalizer(fr.result)
		}
		atomic.AddInt64(&g.pending, -1)
	}
}

func (p *Pool) waitForGroupActivity(g *taskGroup) {
	p.mu.Lock()
	for g.finalizers.Empty() && atomic.LoadInt64(&g.pending) > 0 {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// Close asks workers to stop: in-flight tasks complete, pending tasks are
// dropped, and finalizers of unexecuted tasks never run.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
		p.workers.Wait()
	})
}

func (p *Pool) groupFor(id int) *taskGroup {
	p.groupsMu.Lock()
	defer p.groupsMu.Unlock()
	g, ok := p.groups[id]
	if !ok {
		g = &taskGroup{finalizers: NewStack[finalizedResult]()}
		p.groups[id] = g
	}
	return g
}

func (p *Pool) wake() {
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *Pool) workerLoop() {
	defer p.workers.Done()
	for {
		t, ok := p.popTask()
		if !ok {
			return
		}
		result := t.body()
		g := p.groupFor(t.groupID)
		g.finalizers.PushFront(finalizedResult{finalizer: t.finalizer, result: result})
		p.wake()
	}
}

func (p *Pool) popTask() (*poolTask, bool) {
	for {
		if p.closed.Load() {
			return nil, false
		}
		if t, ok := p.tasks.TryPopFront(); ok {
			return t, true
		}
		p.mu.Lock()
		for p.tasks.Empty() && !p.closed.Load() {
			p.cond.Wait()
		}
		p.mu.Unlock()
	}
}
