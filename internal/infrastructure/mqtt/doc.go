// Package mqtt publishes sceneagent events to an MQTT broker and, optionally,
// accepts remote control tokens.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - JSON event publishing under <prefix>/event/<kind>
//   - Retained online/offline status with Last Will and Testament
//   - A control subscription that forwards PAUSE/RESUME/STEP/STOP into the
//     bridge's control document
//
// # Topic tree
//
//	sceneagent/status          retained online/offline (LWT)
//	sceneagent/event/state     retained run state
//	sceneagent/event/dispatch  one message per envelope
//	sceneagent/event/confirm   confirmation outcome
//	sceneagent/event/skip      skipped clause or discarded block
//	sceneagent/control         inbound control tokens
//
// The control document stays the only input to the state machine. A token
// received over MQTT is written to that document and consumed on the next
// tick like any other.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.PublishEvent("dispatch", evt, false)
//	client.ForwardControl(bridge)
package mqtt
