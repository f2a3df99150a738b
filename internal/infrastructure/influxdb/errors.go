package influxdb

import "errors"

// Errors returned by the mirror client. Batched write errors arrive later
// through SetOnError, wrapped in ErrWriteFailed.
var (
	ErrDisabled         = errors.New("influxdb: mirror disabled")
	ErrConnectionFailed = errors.New("influxdb: cannot reach server")
	ErrNotConnected     = errors.New("influxdb: mirror not connected")
	ErrWriteFailed      = errors.New("influxdb: point write failed")
)
