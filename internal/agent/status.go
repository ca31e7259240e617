package agent

import (
	"time"

	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// Status is a point-in-time copy of the orchestrator's counters.
type Status struct {
	State        string            `json:"state"`
	StartedAt    time.Time         `json:"started_at"`
	Ticks        uint64            `json:"ticks"`
	Sent         uint64            `json:"sent"`
	Discarded    uint64            `json:"discarded"`
	Confirmed    uint64            `json:"confirmed"`
	Timeouts     uint64            `json:"timeouts"`
	SendErrors   uint64            `json:"send_errors"`
	LastRunID    string            `json:"last_run_id,omitempty"`
	LastDispatch time.Time         `json:"last_dispatch,omitzero"`
	QueueDepth   int               `json:"queue_depth"`
	Behavior     snapshot.Behavior `json:"behavior"`
}
