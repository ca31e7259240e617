// Package process supervises the scene engine when sceneagent is asked to
// manage it.
//
// The engine is an external program (typically a headless 3D application
// started with a scene file and a bridge script). When engine.managed is
// set, the supervisor launches it, relays its output into the agent log and
// restarts it with exponential backoff after an unexpected exit. A run that
// stays up longer than StableThreshold resets the backoff.
//
// The agent never depends on the supervisor: with engine.managed off the
// engine is expected to be running already and the bridge folder is the
// only contact point.
//
// Example usage:
//
//	sup := process.NewSupervisor(process.FromEngine(cfg.Engine))
//	sup.SetLogger(log)
//	if err := sup.Start(ctx); err != nil {
//	    return err
//	}
//	defer sup.Stop()
package process
