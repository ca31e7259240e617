// Package snapshot reads the scene and selection documents the engine
// exports after every command.
//
// Reading never fails. A missing, truncated or malformed document yields
// the empty state (and default behavior tunables); individual entries that
// are malformed are dropped while the rest of the document is kept. Each
// document is also checked against an embedded JSON Schema and violations
// are logged at debug level to help diagnose engine-side export bugs.
//
// The behavior section of the selection document carries the live
// tunables (fast mode, delay, burst size, confirm cadence, animator). They
// are clamped to valid ranges, never rejected.
package snapshot
