// Package agent runs the orchestration loop that feeds queued directive
// blocks to the scene engine.
//
// Each tick the Orchestrator:
//
//  1. Consumes the control document and updates the run state
//  2. Idles while PAUSED, exits on STOP
//  3. Reads the live behavior tunables from the selection document
//  4. Pops up to burst_size blocks, compiling each against fresh snapshots
//  5. Sends one envelope per block, tagged with a unique run ID
//  6. Waits for engine confirmation every confirm_every sends and after
//     the last send of the burst
//  7. Auto-pauses after a STEP and applies the inter-tick delay
//
// Delivery is at most once. A block that compiles to nothing, or whose
// envelope cannot be written, is consumed and not re-queued. A
// confirmation timeout is logged and the next block proceeds; the
// confirmed scene version is advanced regardless, so a late confirmation
// may be credited to a later envelope.
//
// Observers (MQTT events, WebSocket hub, SQLite ledger, InfluxDB metrics)
// are optional and called synchronously from the loop; they must not
// block.
package agent
