package ledger

import "time"

// Dispatch is one block handed to the engine.
type Dispatch struct {
	RunID         string        `json:"run_id"`
	DispatchedAt  time.Time     `json:"dispatched_at"`
	BlockHead     string        `json:"block_head"`
	Lines         int           `json:"lines"`
	Operations    int           `json:"operations"`
	Skipped       int           `json:"skipped"`
	Animator      bool          `json:"animator"`
	ConfirmWaited bool          `json:"confirm_waited"`
	Confirmed     bool          `json:"confirmed"`
	ConfirmTime   time.Duration `json:"confirm_ms"`
	Error         string        `json:"error,omitempty"`
}

// Tick summarises one scheduling pass that did work.
type Tick struct {
	StartedAt  time.Time `json:"started_at"`
	State      string    `json:"state"`
	Fast       bool      `json:"fast"`
	BurstSize  int       `json:"burst_size"`
	Sent       int       `json:"sent"`
	Discarded  int       `json:"discarded"`
	QueueDepth int       `json:"queue_depth"`
}
