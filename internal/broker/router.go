package broker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nerrad567/gray-logic-node/internal/task"
)

// Options select which inbound topic forms a connection handles.
type Options struct {
	// HandleCmd accepts "<prefix>/cmd" topics. It also enables value-set
	// on every device kind except event receivers.
	HandleCmd bool

	// HandleSet accepts "<prefix>/<task>/<value>/set" topics.
	HandleSet bool

	// TryRemoteConfig is passed through to the executor.
	TryRemoteConfig bool
}

// RouterConfig holds the collaborators of a Router.
type RouterConfig struct {
	Registry Registry
	Executor Executor
	Events   EventQueue
	Settings Settings
}

// Router turns inbound broker messages into commands and rule events.
//
// Router holds no mutable state; it is safe for concurrent use as long as its
// collaborators are.
type Router struct {
	registry Registry
	executor Executor
	events   EventQueue
	settings Settings
	logger   Logger
}

// NewRouter creates a router. Settings defaults to rules enabled with
// value-set restricted to dynamic value holders.
func NewRouter(cfg RouterConfig) *Router {
	settings := cfg.Settings
	if settings == nil {
		settings = StaticSettings{Rules: true}
	}
	return &Router{
		registry: cfg.Registry,
		executor: cfg.Executor,
		events:   cfg.Events,
		settings: settings,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// Handle processes one inbound message. It returns true when the topic was
// recognised and resolved; false tells the caller it may try other handling.
func (r *Router) Handle(ctx context.Context, topic, payload string, opts Options) bool {
	cmd, ok := r.Command(topic, payload, opts)
	if !ok {
		return false
	}
	r.Dispatch(ctx, cmd, opts.TryRemoteConfig)
	return true
}

// Command builds the canonical command text for an inbound message without
// dispatching it.
func (r *Router) Command(topic, payload string, opts Options) (string, bool) {
	p := ParseTopic(topic, opts.HandleCmd, opts.HandleSet)

	switch p.Kind {
	case TopicCommand:
		return payload, true
	case TopicSet:
		return r.setCommand(p, payload, opts.HandleCmd)
	default:
		return "", false
	}
}

func (r *Router) setCommand(p Parsed, payload string, handleCmd bool) (string, bool) {
	if r.registry == nil {
		return "", false
	}

	idx, ok := r.registry.ResolveTask(p.TaskName)
	if !ok {
		r.logger.Debug("set topic for unknown task", "task", p.TaskName)
		return "", false
	}
	kind, ok := r.registry.DeviceKind(idx)
	if !ok {
		return "", false
	}

	valueSetAllowed := kind == task.KindDummy ||
		((handleCmd || r.settings.AllowValueSetAllKinds()) && kind != task.KindEventReceiver)

	switch {
	case valueSetAllowed:
		v, ok := r.registry.ValueIndex(idx, p.ValueName)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("TaskValueSet,%d,%d,%s", int(idx)+1, v+1, payload), true

	case kind == task.KindEventReceiver:
		v, ok := r.registry.ValueIndex(idx, p.ValueName)
		if !ok {
			return "", false
		}
		return "event," + p.ValueName + "=" + r.eventValue(idx, v, payload), true

	default:
		return "", false
	}
}

// eventValue applies the per-value payload transform of an event receiver.
func (r *Router) eventValue(idx task.Index, v int, payload string) string {
	switch r.registry.ValueFormat(idx, v) {
	case task.FormatString:
		return wrapWithQuotes(payload)
	case task.FormatEnum:
		pos := enumPosition(r.registry.EnumLabels(idx, v), payload)
		return strconv.Itoa(pos) + "," + payload
	default:
		return payload
	}
}

// Dispatch sends canonical command text on. Event commands are sanitised and
// queued (dropped when rules are disabled); anything else is executed.
func (r *Router) Dispatch(ctx context.Context, cmd string, tryRemoteConfig bool) {
	if IsEventCommand(cmd) {
		if !r.settings.RulesEnabled() || r.events == nil {
			r.logger.Debug("rules disabled, event dropped", "command", cmd)
			return
		}
		event := SanitizeEvent(cmd)
		if !r.events.EnqueueUnique(event) {
			r.logger.Debug("duplicate event ignored", "event", event)
		}
		return
	}

	if r.executor == nil {
		r.logger.Warn("no executor, command dropped", "command", cmd)
		return
	}
	if !r.executor.Execute(ctx, task.InvalidIndex, SourceMQTT, cmd, true, tryRemoteConfig) {
		r.logger.Debug("command not executed", "command", cmd)
	}
}
