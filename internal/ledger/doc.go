// Package ledger records what the agent dispatched to the engine.
//
// Each block handed to the bridge becomes a Dispatch row keyed by its run
// ID, and each tick that sent or discarded anything becomes a Tick row.
// The ledger is write-mostly: the agent appends, the status API and the
// history command read recent rows back.
//
// The ledger is optional. When disabled the agent runs with a nil
// recorder and nothing here is touched.
package ledger
