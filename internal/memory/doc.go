// Package memory reads the engine's task history and reports on it.
//
// The engine appends one entry per executed command to the task memory
// document, either as a JSON array or as JSON Lines. Each entry carries the
// command text, a timestamp and the scene snapshot taken afterwards.
//
// From that history this package provides the last command, a diff of the
// scene objects between the last two entries, a printable scene summary and
// a generator for the next incremental edit driven by the selection's
// behavior mode.
package memory
