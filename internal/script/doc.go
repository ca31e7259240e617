// Package script defines the primitive scene operations sceneagent can
// emit and serialises them to the engine's Python scripting dialect.
//
// Each operation becomes one self-contained fragment that looks the target
// object up by name, does nothing if it is missing, and applies a delta to
// one transform channel. Operations are serialised as soon as a block is
// compiled and are not retained.
//
// Adding an operation kind means adding a type here and a branch in
// Serialize.
package script
