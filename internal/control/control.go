// Package control implements the agent's run-state machine.
//
// The state machine is driven by a single-token control document that
// operators (or the engine UI) write. The token is consumed once: after a
// recognised signal is applied the document is cleared.
//
//	RUNNING --PAUSE--> PAUSED --RESUME--> RUNNING
//	any     --STEP---> STEPPING --(tick)--> PAUSED
//	any     --STOP---> STOPPED (terminal)
package control

import (
	"fmt"
	"strings"
	"sync"
)

// State is the agent's run state.
type State int

const (
	Running State = iota
	Paused
	Stepping
	Stopped
)

// String returns the upper-case state name used in logs and events.
func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	case Stepping:
		return "STEPPING"
	case Stopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Signal is one external control token.
type Signal string

const (
	SignalNone   Signal = ""
	SignalPause  Signal = "PAUSE"
	SignalResume Signal = "RESUME"
	SignalStep   Signal = "STEP"
	SignalStop   Signal = "STOP"
)

// ParseSignal trims and upper-cases text. Anything other than the four
// control tokens is SignalNone.
func ParseSignal(text string) Signal {
	switch s := Signal(strings.ToUpper(strings.TrimSpace(text))); s {
	case SignalPause, SignalResume, SignalStep, SignalStop:
		return s
	default:
		return SignalNone
	}
}

// SignalSource is the control document.
type SignalSource interface {
	ReadSignal() (string, error)
	ClearSignal() error
}

// Machine holds the current state.
//
// Thread Safety:
//   - Safe for concurrent use; the orchestration loop mutates it and
//     status readers call State.
type Machine struct {
	mu    sync.RWMutex
	state State
}

// NewMachine returns a machine in the given initial state.
func NewMachine(initial State) *Machine {
	return &Machine{state: initial}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Apply transitions on sig.
//
// Returns:
//   - State: The state after the signal
//   - bool: true if the state changed
func (m *Machine) Apply(sig Signal) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Stopped {
		return m.state, false
	}

	next := m.state
	switch sig {
	case SignalPause:
		next = Paused
	case SignalResume:
		next = Running
	case SignalStep:
		next = Stepping
	case SignalStop:
		next = Stopped
	}

	changed := next != m.state
	m.state = next
	return next, changed
}

// Poll reads the control document, applies any recognised signal and
// clears the document. Unrecognised text is left in place.
//
// Returns:
//   - Signal: The consumed signal, or SignalNone
//   - error: A read or clear failure; the state is unchanged on read failure
func (m *Machine) Poll(src SignalSource) (Signal, error) {
	text, err := src.ReadSignal()
	if err != nil {
		return SignalNone, err
	}
	sig := ParseSignal(text)
	if sig == SignalNone {
		return SignalNone, nil
	}
	m.Apply(sig)
	if err := src.ClearSignal(); err != nil {
		return sig, err
	}
	return sig, nil
}

// CompleteStep moves STEPPING to PAUSED once a tick has finished.
// It reports whether a transition happened.
func (m *Machine) CompleteStep() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Stepping {
		return false
	}
	m.state = Paused
	return true
}
