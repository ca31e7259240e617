// Package api implements the local HTTP API and WebSocket event stream for
// sceneagent.
//
// This package provides:
//   - Read endpoints for the orchestrator status and the dispatch ledger
//   - Write endpoints that enqueue directive blocks and send control signals
//   - A compile preview that shows the code a line would produce
//   - An audit trail of enqueue and control actions
//   - A WebSocket hub that relays orchestrator events in real time
//
// # Architecture
//
// The API never drives the engine directly. Enqueued blocks go to the
// queue document and control signals go to the control document, exactly
// as if an operator had edited the files. The orchestration loop stays the
// only writer of the engine's input.
//
// # Security
//
// The server binds to 127.0.0.1 by default and has no authentication. It
// is meant for tools on the same machine as the engine.
//
// # Graceful Degradation
//
// Every dependency except the logger is optional. Endpoints whose backing
// component is absent answer 503.
package api
