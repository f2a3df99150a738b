package mqtt

import (
	"fmt"
	"sort"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscribe registers a handler for a topic filter, typically the node's
// expanded subscribe template ("node1/#").
//
// The filter is validated before anything is sent: wildcards must occupy
// whole levels and template placeholders must already be expanded. The
// subscription is remembered and restored after every reconnect.
func (c *Client) Subscribe(filter string, qos byte, handler MessageHandler) error {
	if err := ValidateFilter(filter); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.track(subscription{topic: filter, qos: qos, handler: handler})

	token := c.client.Subscribe(filter, qos, c.wrapHandler(handler))
	if err := awaitToken(token, ErrSubscribeFailed); err != nil {
		c.untrack(filter)
		return fmt.Errorf("%w (filter %q)", err, filter)
	}
	return nil
}

// Unsubscribe drops a subscription. Messages already in flight may still be
// delivered.
func (c *Client) Unsubscribe(filter string) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.untrack(filter)
	return awaitToken(c.client.Unsubscribe(filter), ErrUnsubscribeFailed)
}

// Subscriptions returns the tracked filters in sorted order.
func (c *Client) Subscriptions() []string {
	c.subMu.RLock()
	filters := make([]string, 0, len(c.subscriptions))
	for f := range c.subscriptions {
		filters = append(filters, f)
	}
	c.subMu.RUnlock()

	sort.Strings(filters)
	return filters
}

// restoreSubscriptions re-sends every tracked subscription after a reconnect.
// Failures are logged; the next reconnect tries again.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	subs := make([]subscription, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		subs = append(subs, sub)
	}
	c.subMu.RUnlock()

	for _, sub := range subs {
		token := c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
		go func(filter string) {
			if err := awaitToken(token, ErrSubscribeFailed); err != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Warn("MQTT resubscribe failed", "filter", filter, "error", err)
				}
			}
		}(sub.topic)
	}
}

func (c *Client) track(sub subscription) {
	c.subMu.Lock()
	c.subscriptions[sub.topic] = sub
	c.subMu.Unlock()
}

func (c *Client) untrack(filter string) {
	c.subMu.Lock()
	delete(c.subscriptions, filter)
	c.subMu.Unlock()
}

// awaitToken waits for a paho token and wraps failures in sentinel.
func awaitToken(token pahomqtt.Token, sentinel error) error {
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", sentinel, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}
