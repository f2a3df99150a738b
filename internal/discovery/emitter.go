package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-node/internal/broker"
	"github.com/nerrad567/gray-logic-node/internal/task"
)

// Device classes used in discovery topics.
const (
	DeviceClassSwitch = "switch"
)

// Registry lists the configured tasks.
type Registry interface {
	Tasks() []task.Task
}

// Message is the discovery message of one task.
type Message struct {
	Controller int
	Task       task.Index
	TaskName   string

	// Topic is the expanded discovery topic of the task's first entry.
	Topic string

	// Payload is the concatenation of one JSON object per entry, each
	// followed by a comma.
	Payload string
}

// Sender transmits discovery messages.
type Sender interface {
	SendDiscovery(ctx context.Context, msg Message) error
}

// Logger defines the logging interface used by the emitter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// EmitterConfig configures an Emitter.
type EmitterConfig struct {
	Registry Registry
	Sender   Sender
	Subst    broker.Substituter

	// Enabled and Topic gate discovery; nothing is emitted when disabled or
	// when Topic is empty.
	Enabled bool
	Topic   string
}

// Emitter builds and sends automation-platform discovery messages.
type Emitter struct {
	registry Registry
	sender   Sender
	subst    broker.Substituter
	enabled  bool
	topic    string
	logger   Logger

	sent atomic.Uint64
}

// NewEmitter creates an emitter.
func NewEmitter(cfg EmitterConfig) *Emitter {
	return &Emitter{
		registry: cfg.Registry,
		sender:   cfg.Sender,
		subst:    cfg.Subst,
		enabled:  cfg.Enabled,
		topic:    cfg.Topic,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the emitter.
func (e *Emitter) SetLogger(logger Logger) {
	e.logger = logger
}

// Enabled reports whether discovery will emit anything.
func (e *Emitter) Enabled() bool {
	return e.enabled && e.topic != ""
}

// Sent returns the number of discovery messages sent.
func (e *Emitter) Sent() uint64 {
	return e.sent.Load()
}

type switchEntry struct {
	Base       string `json:"~"`
	Name       string `json:"name"`
	CommandT   string `json:"cmd_t"`
	StateTopic string `json:"stat_t"`
}

// Build returns the discovery messages for a controller without sending them.
// Only enabled tasks selected for the controller are considered; tasks whose
// items yield no payload are left out.
func (e *Emitter) Build(controller int) []Message {
	if !e.Enabled() {
		return nil
	}

	var msgs []Message
	for _, t := range e.registry.Tasks() {
		if !t.Enabled || !t.SelectedFor(controller) {
			continue
		}

		items := Classify(t.Kind, t.ValueKind, uint8(len(t.Values)), HintsHook(&t))
		if msg, ok := e.buildTask(controller, &t, items); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (e *Emitter) buildTask(controller int, t *task.Task, items []Item) (Message, bool) {
	reading := &broker.Reading{Controller: controller, Task: t.Index, Kind: t.ValueKind}

	var payload strings.Builder
	var firstTopic string

	for _, it := range items {
		switch it.Kind {
		case task.ValueSwitch:
			for i := 0; i < int(it.Count); i++ {
				v := int(it.Offset) + i
				if v >= len(t.Values) || t.Values[v].Name == "" {
					continue
				}

				base := e.subst.SubstituteValue(e.topic, reading, v)
				base = broker.SubstituteDeviceClass(base, DeviceClassSwitch)
				base = e.subst.Substitute(base, reading)

				entry, err := json.Marshal(switchEntry{
					Base:       base,
					Name:       t.Name,
					CommandT:   "~/set",
					StateTopic: "~/" + t.Values[v].Name,
				})
				if err != nil {
					continue
				}
				payload.Write(entry)
				payload.WriteByte(',')

				if firstTopic == "" {
					firstTopic = base
				}
			}
		default:
			// Sensor kinds are classified but not announced yet.
		}
	}

	if payload.Len() == 0 {
		return Message{}, false
	}
	return Message{
		Controller: controller,
		Task:       t.Index,
		TaskName:   t.Name,
		Topic:      firstTopic,
		Payload:    payload.String(),
	}, true
}

// Emit builds and sends the discovery messages for a controller.
//
// It returns true if any task produced a non-empty message. Send failures do
// not stop the remaining tasks; they are returned joined.
func (e *Emitter) Emit(ctx context.Context, controller int) (bool, error) {
	msgs := e.Build(controller)

	var errs []error
	for _, m := range msgs {
		if err := e.sender.SendDiscovery(ctx, m); err != nil {
			e.logger.Warn("discovery send failed", "task", m.TaskName, "error", err)
			errs = append(errs, fmt.Errorf("task %q: %w", m.TaskName, err))
			continue
		}
		e.sent.Add(1)
		e.logger.Debug("discovery sent", "task", m.TaskName, "topic", m.Topic)
	}

	return len(msgs) > 0, errors.Join(errs...)
}
