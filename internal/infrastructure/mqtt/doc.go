// Package mqtt provides MQTT broker connectivity for a Gray Logic Node.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored after reconnect
//   - The node status topic: retained "online" on every connect, graceful
//     "offline" on Close, and a Last Will and Testament for crashes
//   - Topic name and filter validation
//
// The client knows nothing about tasks or commands. The bridge package maps
// node semantics (value topics, cmd/set routing, discovery) onto it.
//
// # Status payloads
//
//	{"status":"online","client_id":"graylogic-node-1a2b3c4d","session_id":"<uuid>","timestamp":"..."}
//	{"status":"offline","client_id":"...","session_id":"<uuid>","reason":"unexpected_disconnect","timestamp":"..."}
//
// The session id is generated per Connect, so a consumer can tell a restart
// from a reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, "node1/LWT")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("node1/#", 1, func(topic string, payload []byte) error {
//	    return nil
//	})
package mqtt
