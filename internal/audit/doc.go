// Package audit records operator actions that change what the agent will do:
// blocks enqueued and control tokens written, from the HTTP API or the MQTT
// control topic.
//
// Entries are written asynchronously by a Recorder so a slow SQLite write
// never holds up an HTTP response or an MQTT callback. Recording is
// best-effort: when the buffer is full the entry is dropped with a warning.
//
// Usage:
//
//	rec := audit.NewRecorder(audit.NewSQLiteRepository(db.DB), logger)
//	go rec.Run(ctx)
//	rec.Record(audit.ActionControl, audit.SourceAPI, map[string]any{"signal": "PAUSE"})
package audit
