// Package bridge implements the file transport between sceneagent and the
// scene engine.
//
// The engine and the agent share one folder and no locking primitive. The
// agent writes a command to the input document and raises the trigger file;
// the engine executes it, deletes the trigger, rewrites the execution log
// (appending a success marker when the command ran cleanly) and re-exports
// its scene and selection snapshots.
//
// All reads are lenient: a missing or unreadable file is "no data" and the
// caller retries on its next tick. Whole-file writes go through a
// write-then-rename so the engine never observes a half-written document.
//
// Await is the single bounded poll-with-timeout primitive used for
// confirmation waits.
package bridge
