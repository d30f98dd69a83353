package ecs

import "errors"

var (
	// ErrComponentAlreadyRegistered indicates an attempt to register the same component-type-id twice.
	ErrComponentAlreadyRegistered = errors.New("ecs: component descriptor already registered")
	// ErrComponentNotRegistered names a descriptor lookup for an unknown component-type-id; Registry.Get reports that case with a false second return instead of this error.
	ErrComponentNotRegistered = errors.New("ecs: component descriptor not registered")
	// ErrEntityNotLive indicates an operation requiring liveness was attempted on a dead or unknown entity.
	ErrEntityNotLive = errors.New("ecs: entity is not live in this store")
	// ErrCyclicDependency indicates the dependency graph could not be finalized because it contains a cycle.
	ErrCyclicDependency = errors.New("ecs: cyclic dependency among systems")
	// ErrDuplicateSystemName indicates two systems were registered under the same name.
	ErrDuplicateSystemName = errors.New("ecs: duplicate system name")
	// ErrPoolClosed indicates a task was submitted to a worker pool that has already been stopped.
	ErrPoolClosed = errors.New("ecs: worker pool closed")
	// ErrUnknownGroup names a task group that has never received work; Pool.FinalizeTasks returns no error and returns at once for such a group.
	ErrUnknownGroup = errors.New("ecs: unknown task group")
	// ErrManagerNotInitialized indicates Update was called before Init.
	ErrManagerNotInitialized = errors.New("ecs: systems manager not initialized")
)
