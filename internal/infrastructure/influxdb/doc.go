// Package influxdb writes sceneagent dispatch and tick metrics to InfluxDB v2.
//
// Points are written through the client library's non-blocking write API,
// so calls from the orchestration loop never wait on the network. Write
// failures surface asynchronously through SetOnError.
//
// Measurements:
//
//	agent_dispatch  tags: confirmed            fields: run_id, operations, skipped, confirm_ms
//	agent_tick      tags: state                fields: sent, discarded, queue_depth
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	orchestrator.SetMetrics(client)
package influxdb
