package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementDispatch = "agent_dispatch"
	measurementTick     = "agent_tick"
)

// WriteDispatch records one envelope sent to the engine.
func (c *Client) WriteDispatch(runID string, operations, skipped int, confirmed bool, latency time.Duration) {
	c.write(dispatchPoint(runID, operations, skipped, confirmed, latency, time.Now()))
}

// WriteTick records one tick that sent or discarded blocks.
func (c *Client) WriteTick(state string, sent, discarded, queueDepth int) {
	c.write(tickPoint(state, sent, discarded, queueDepth, time.Now()))
}

func (c *Client) write(p *write.Point) {
	if !c.IsConnected() || c.writer == nil {
		return
	}
	c.writer.WritePoint(p)
}

func dispatchPoint(runID string, operations, skipped int, confirmed bool, latency time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		measurementDispatch,
		map[string]string{"confirmed": strconv.FormatBool(confirmed)},
		map[string]any{
			"run_id":     runID,
			"operations": operations,
			"skipped":    skipped,
			"confirm_ms": latency.Milliseconds(),
		},
		at,
	)
}

func tickPoint(state string, sent, discarded, queueDepth int, at time.Time) *write.Point {
	return write.NewPoint(
		measurementTick,
		map[string]string{"state": state},
		map[string]any{
			"sent":        sent,
			"discarded":   discarded,
			"queue_depth": queueDepth,
		},
		at,
	)
}
