package agent

import (
	"strings"

	"github.com/google/uuid"
)

// runIDMarker prefixes the comment line that makes every envelope unique.
const runIDMarker = "# runid:"

// Envelope is one unit delivered to the engine.
type Envelope struct {
	RunID string
	Code  string
}

// Text renders the envelope as written to the command channel: the code
// followed by a comment line carrying the run ID, so a resend of identical
// code is still a new document.
func (e Envelope) Text() string {
	return strings.TrimRight(e.Code, "\n") + "\n" + runIDMarker + e.RunID + "\n"
}

// RunIDOf extracts the run ID from envelope text, or "" if none is present.
func RunIDOf(text string) string {
	i := strings.LastIndex(text, runIDMarker)
	if i < 0 {
		return ""
	}
	rest := text[i+len(runIDMarker):]
	if j := strings.IndexByte(rest, '\n'); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

// NewRunID returns a time-ordered unique identifier.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
