package bridge

import "errors"

var (
	// ErrEmptyCommand is returned when Send is called with no code.
	ErrEmptyCommand = errors.New("bridge: empty command")

	// ErrInvalidSignal is returned when WriteSignal is given an unknown token.
	ErrInvalidSignal = errors.New("bridge: invalid control signal")
)
