package agent

import "time"

// Event kinds, used as MQTT topic suffixes and WebSocket channels.
const (
	EventState    = "state"
	EventDispatch = "dispatch"
	EventConfirm  = "confirm"
	EventSkip     = "skip"
)

// StateEvent announces a run-state change.
type StateEvent struct {
	State  string    `json:"state"`
	Signal string    `json:"signal,omitempty"`
	At     time.Time `json:"at"`
}

// DispatchEvent announces an envelope written to the command channel.
type DispatchEvent struct {
	RunID      string    `json:"run_id"`
	BlockHead  string    `json:"block_head"`
	Lines      int       `json:"lines"`
	Operations int       `json:"operations"`
	Targets    []string  `json:"targets,omitempty"`
	Animator   bool      `json:"animator"`
	At         time.Time `json:"at"`
}

// ConfirmEvent reports the outcome of a confirmation wait.
type ConfirmEvent struct {
	RunID     string `json:"run_id"`
	Confirmed bool   `json:"confirmed"`
	WaitedMS  int64  `json:"waited_ms"`
}

// SkipEvent reports a clause or whole block that produced nothing.
type SkipEvent struct {
	BlockHead string `json:"block_head"`
	Clause    string `json:"clause,omitempty"`
	Reason    string `json:"reason"`
	Discarded bool   `json:"discarded"`
}
