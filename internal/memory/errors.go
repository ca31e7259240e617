package memory

import "errors"

// Domain errors for task memory.
var (
	// ErrNoTasks is returned when the history is empty.
	ErrNoTasks = errors.New("memory: no tasks found")

	// ErrNotEnoughTasks is returned by Diff with fewer than two entries.
	ErrNotEnoughTasks = errors.New("memory: not enough tasks to compare")
)
