package process

import "errors"

var (
	// ErrAlreadyRunning is returned by Start on a live supervisor.
	ErrAlreadyRunning = errors.New("process: already running")

	// ErrNoBinary is returned by Start when Config.Binary is empty.
	ErrNoBinary = errors.New("process: no binary configured")

	// ErrUnhealthy wraps the exit of a program killed by its health check.
	ErrUnhealthy = errors.New("process: killed after failed health checks")
)
