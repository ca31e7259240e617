package agent

import (
	"context"
	"time"

	"github.com/nerrad567/sceneagent/internal/directive"
	"github.com/nerrad567/sceneagent/internal/ledger"
	"github.com/nerrad567/sceneagent/internal/queue"
	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// Transport is the file channel to the engine.
type Transport interface {
	// Send writes the envelope text and raises the execution trigger.
	Send(code string) error
	// SceneVersion returns the scene snapshot's modification time.
	SceneVersion() time.Time
	// Confirmed reports whether the engine processed a command since the version.
	Confirmed(since time.Time) bool
	// ReadSignal returns the raw control document.
	ReadSignal() (string, error)
	// ClearSignal empties the control document.
	ClearSignal() error
}

// BlockSource is the persisted block queue.
type BlockSource interface {
	Pop() (queue.Block, bool, error)
	Len() (int, error)
}

// Snapshots provides fresh scene and selection state on every call.
type Snapshots interface {
	Scene() snapshot.Scene
	Selection() snapshot.Selection
}

// Compiler turns a block into operations.
type Compiler interface {
	CompileBlock(block []string, scene snapshot.Scene, sel snapshot.Selection) directive.Result
}

// EventPublisher is the interface for publishing agent events to MQTT.
type EventPublisher interface {
	// PublishEvent publishes a JSON payload under the agent's topic for kind.
	PublishEvent(kind string, payload any, retained bool) error
}

// WSHub is the interface for broadcasting WebSocket events.
type WSHub interface {
	// Broadcast sends an event to all clients subscribed to the given channel.
	Broadcast(channel string, payload any)
}

// Ledger persists dispatches and tick summaries.
type Ledger interface {
	RecordDispatch(ctx context.Context, d ledger.Dispatch) error
	RecordTick(ctx context.Context, t ledger.Tick) error
}

// Metrics writes time-series points. Implementations must not block.
type Metrics interface {
	WriteDispatch(runID string, operations, skipped int, confirmed bool, latency time.Duration)
	WriteTick(state string, sent, discarded, queueDepth int)
}

// Logger defines the logging interface used by the Orchestrator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
