// Package influxdb mirrors node telemetry into InfluxDB.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched non-blocking writes and health monitoring.
//
// # Measurements
//
//   - task_values: one point per published task reading, tagged with node,
//     task and task_index; one field per visible value, plus "text" for
//     string tasks.
//   - link_state: one point per connectivity transition of an interface.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Node.Name)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteTaskReading(influxdb.TaskReading{
//	    Task:   "Thermo",
//	    Values: map[string]float64{"Temperature": 21.5},
//	})
//
// # Error Handling
//
// Write errors are delivered asynchronously through SetOnError. Connection
// and health check errors are returned directly.
package influxdb
