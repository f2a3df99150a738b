package broker

import (
	"context"

	"github.com/nerrad567/gray-logic-node/internal/task"
)

// Source tags the origin of an executed command.
type Source string

// SourceMQTT marks commands received from the message broker.
const SourceMQTT Source = "mqtt"

// Registry resolves names and per-value metadata of configured tasks.
type Registry interface {
	ResolveTask(name string) (task.Index, bool)
	DeviceKind(idx task.Index) (task.Kind, bool)
	ValueIndex(idx task.Index, name string) (int, bool)
	ValueCount(idx task.Index) int
	ValueName(idx task.Index, v int) string
	ValueFormat(idx task.Index, v int) task.Format
	EnumLabels(idx task.Index, v int) string
	ValueDecimals(idx task.Index, v int) int
}

// Executor runs already-parsed command text.
type Executor interface {
	Execute(ctx context.Context, idx task.Index, source Source, cmd string, synchronous, tryRemoteConfig bool) bool
}

// EventQueue accepts rule events. EnqueueUnique is a no-op returning false
// when an identical event is already pending.
type EventQueue interface {
	EnqueueUnique(event string) bool
}

// Settings exposes the global switches the router consults.
type Settings interface {
	RulesEnabled() bool
	AllowValueSetAllKinds() bool
}

// StaticSettings is a fixed Settings value.
type StaticSettings struct {
	Rules            bool
	ValueSetAllKinds bool
}

// RulesEnabled implements Settings.
func (s StaticSettings) RulesEnabled() bool { return s.Rules }

// AllowValueSetAllKinds implements Settings.
func (s StaticSettings) AllowValueSetAllKinds() bool { return s.ValueSetAllKinds }

// Transport publishes one message. It reports success; retries are the
// transport's own business.
type Transport interface {
	Publish(ctx context.Context, controller int, idx task.Index, topic, payload string, retain bool) bool
}

// Substituter expands topic placeholders.
type Substituter interface {
	// HasPlaceholder reports whether template contains placeholder.
	HasPlaceholder(template, placeholder string) bool

	// SubstituteValue expands the per-value placeholders (%valname%, %valunit%)
	// for value v.
	SubstituteValue(template string, r *Reading, v int) string

	// Substitute expands every other recognised placeholder.
	Substitute(template string, r *Reading) string
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
