// Package config handles loading and validating sceneagent configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Two kinds of settings exist and only one lives here. The static layout
// (bridge folder, file names, timeouts, optional MQTT/InfluxDB/API/ledger)
// is loaded once at startup. The live tunables the operator changes while
// the agent runs (fast mode, delay, burst size, confirm cadence) are read
// from the engine's selection document every tick by package snapshot.
//
// Security Considerations:
//   - MQTT passwords and InfluxDB tokens should be set via environment variables
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml", true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.BridgePath(cfg.Bridge.Files.Queue))
package config
