package broker

import (
	"context"
	"strconv"

	"github.com/nerrad567/gray-logic-node/internal/task"
)

// logPreviewLen bounds how much of a string payload is logged.
const logPreviewLen = 20

// Reading is one sensor-reading event of a task.
type Reading struct {
	Controller int
	Task       task.Index

	// Kind is the task's value kind; ValueString publishes Text for every
	// exposed value, anything else formats Values numerically.
	Kind   task.ValueKind
	Values []float64
	Text   string
}

// PublishRegistry is the registry surface used by the Publisher.
type PublishRegistry interface {
	ValueCount(idx task.Index) int
	ValueName(idx task.Index, v int) string
	ValueDecimals(idx task.Index, v int) int
}

// Publisher sends task readings to the broker, one message per exposed value.
type Publisher struct {
	registry  PublishRegistry
	transport Transport
	subst     Substituter
	logger    Logger
}

// NewPublisher creates a publisher.
func NewPublisher(registry PublishRegistry, transport Transport, subst Substituter) *Publisher {
	return &Publisher{
		registry:  registry,
		transport: transport,
		subst:     subst,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the publisher.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Publish sends every exposed value of r using the topic template.
//
// Values with an empty name are not exposed and are skipped. A failed publish
// does not stop the remaining values. Publish returns true if at least one
// message was accepted by the transport.
func (p *Publisher) Publish(ctx context.Context, r Reading, template string, retain bool) bool {
	success := false
	perValue := p.subst.HasPlaceholder(template, PlaceholderValueName) ||
		p.subst.HasPlaceholder(template, PlaceholderValueUnit)
	count := p.registry.ValueCount(r.Task)

	for v := 0; v < count; v++ {
		if p.registry.ValueName(r.Task, v) == "" {
			continue
		}

		topic := template
		if perValue {
			topic = p.subst.SubstituteValue(topic, &r, v)
		}
		topic = p.subst.Substitute(topic, &r)

		var payload, preview string
		if r.Kind == task.ValueString {
			payload = r.Text
			preview = truncate(r.Text, logPreviewLen)
		} else {
			payload = formatValue(r.Values, v, p.registry.ValueDecimals(r.Task, v))
			preview = payload
		}

		p.logger.Debug("publishing value",
			"controller", r.Controller,
			"topic", topic,
			"value", preview)

		if p.transport.Publish(ctx, r.Controller, r.Task, topic, payload, retain) {
			success = true
		} else {
			p.logger.Warn("publish failed", "controller", r.Controller, "topic", topic)
		}
	}

	return success
}

func formatValue(values []float64, v, decimals int) string {
	if v >= len(values) {
		return "0"
	}
	return strconv.FormatFloat(values[v], 'f', decimals, 64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
