package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-node/internal/discovery"
	"github.com/nerrad567/gray-logic-node/internal/task"
)

// ErrNotConnected is returned when publishing while the broker is unreachable.
var ErrNotConnected = errors.New("bridge: broker not connected")

// Publish implements broker.Transport for the bridge's own controller.
func (b *Bridge) Publish(ctx context.Context, controller int, idx task.Index, topic, payload string, retain bool) bool {
	if controller != b.cfg.Controller {
		b.logger.Debug("publish for foreign controller dropped", "controller", controller, "topic", topic)
		return false
	}
	if err := b.send(ctx, topic, payload, retain); err != nil {
		b.logger.Warn("publish failed", "task", int(idx)+1, "topic", topic, "error", err)
		return false
	}
	return true
}

// SendDiscovery implements discovery.Sender. Discovery messages are retained.
func (b *Bridge) SendDiscovery(ctx context.Context, msg discovery.Message) error {
	if msg.Controller != b.cfg.Controller {
		return fmt.Errorf("discovery for controller %d on connection %d", msg.Controller, b.cfg.Controller)
	}
	return b.send(ctx, msg.Topic, msg.Payload, true)
}

// PublishRaw implements command.RawPublisher.
func (b *Bridge) PublishRaw(ctx context.Context, topic, payload string, retain bool) error {
	return b.send(ctx, topic, payload, retain)
}

func (b *Bridge) send(ctx context.Context, topic, payload string, retain bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.mqtt.IsConnected() {
		b.publishFailed.Add(1)
		return ErrNotConnected
	}
	if err := b.mqtt.Publish(topic, []byte(payload), b.cfg.QoS, retain); err != nil {
		b.publishFailed.Add(1)
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	b.published.Add(1)
	return nil
}
