package audit

import "time"

// Actions recorded by the agent.
const (
	ActionEnqueue = "enqueue"
	ActionControl = "control"
)

// Sources an action can arrive from.
const (
	SourceAPI  = "api"
	SourceMQTT = "mqtt"
)

// Entry is a single audit trail row.
type Entry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Source    string         `json:"source"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter controls which entries List returns.
type Filter struct {
	Action string // optional
	Source string // optional
	Limit  int    // default 50, max 200
	Offset int
}

// ListResult is one page of entries, most recent first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)
