// Package logging provides structured logging for sceneagent.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the agent.
//
// # Features
//
//   - JSON output for machine consumption
//   - Text output for operators watching a terminal
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Optional file sink fanned out alongside the console (slog-multi)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stdout"   # stdout, stderr
//	  file:
//	    path: "./data/sceneagent.log"
//	    format: "json"
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	defer logger.Close()
//	logger.Info("dispatched", "run_id", id)
//
// Never log generated command text at info level; it can be large. Use debug.
package logging
