package mqtt

import "errors"

// Broker errors. Callers match them with errors.Is.
var (
	ErrNotConnected      = errors.New("mqtt: broker not connected")
	ErrConnectionFailed  = errors.New("mqtt: cannot connect to broker")
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS rejects QoS levels other than 0, 1 and 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level")

	// ErrInvalidTopic rejects empty publish topics and topics with wildcards.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrInvalidFilter rejects subscription filters that misuse + or #.
	ErrInvalidFilter = errors.New("mqtt: invalid topic filter")
)
