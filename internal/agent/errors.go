package agent

import "errors"

// Domain errors for the orchestration loop.
var (
	// ErrStopped is returned by Tick once a STOP signal has been consumed.
	ErrStopped = errors.New("agent: stopped")

	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("agent: transport, queue, snapshots and compiler are required")
)
