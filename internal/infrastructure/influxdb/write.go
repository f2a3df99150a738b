package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementTaskValues = "task_values"
	measurementLinkState  = "link_state"
)

// TaskReading is one task's values at the time they were published.
type TaskReading struct {
	Task      string
	TaskIndex int

	// Values maps value names to numeric values. Hidden values are omitted.
	Values map[string]float64

	// Text is the payload of string tasks; ignored when empty.
	Text string
}

// LinkState is the observable connectivity state of one interface.
type LinkState struct {
	Interface             string
	Connected             bool
	AddressAcquired       bool
	ServicesInitialized   bool
	Stable                bool
	ConnectAttempts       uint32
	LastConnectedDuration time.Duration
}

// WriteTaskReading mirrors a published task reading. Non-blocking.
func (c *Client) WriteTaskReading(r TaskReading) {
	if !c.IsConnected() {
		return
	}
	if p := taskPoint(c.node, r, time.Now()); p != nil {
		c.writeAPI.WritePoint(p)
	}
}

// WriteLinkState records a connectivity transition. Non-blocking.
func (c *Client) WriteLinkState(s LinkState) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(linkPoint(c.node, s, time.Now()))
}

// taskPoint builds the task_values point; nil when the reading has no fields.
//
// Tags: node, task, task_index. Fields: one per value name, plus "text".
func taskPoint(node string, r TaskReading, ts time.Time) *write.Point {
	fields := make(map[string]any, len(r.Values)+1)
	for name, v := range r.Values {
		fields[name] = v
	}
	if r.Text != "" {
		fields["text"] = r.Text
	}
	if len(fields) == 0 {
		return nil
	}

	return write.NewPoint(
		measurementTaskValues,
		map[string]string{
			"node":       node,
			"task":       r.Task,
			"task_index": strconv.Itoa(r.TaskIndex),
		},
		fields,
		ts,
	)
}

// linkPoint builds the link_state point.
//
// Tags: node, interface. Durations are written in seconds.
func linkPoint(node string, s LinkState, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementLinkState,
		map[string]string{
			"node":      node,
			"interface": s.Interface,
		},
		map[string]any{
			"connected":               s.Connected,
			"address_acquired":        s.AddressAcquired,
			"services_initialized":    s.ServicesInitialized,
			"stable":                  s.Stable,
			"connect_attempts":        int64(s.ConnectAttempts),
			"last_connected_duration": s.LastConnectedDuration.Seconds(),
		},
		ts,
	)
}
