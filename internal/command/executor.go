// Package command executes command text received from the broker.
//
// Supported commands:
//
//	TaskValueSet,<task>,<value>,<new value>   task and value are 1-based
//	TaskRun,<task>                            re-publish the task's values
//	Publish,<topic>,<payload>                 publish a raw message
//
// Command keywords are case-insensitive. Unknown commands are refused.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-node/internal/broker"
	"github.com/nerrad567/gray-logic-node/internal/task"
)

// Command errors.
var (
	// ErrUnknownCommand is returned for unsupported command keywords.
	ErrUnknownCommand = errors.New("command: unknown")

	// ErrBadArguments is returned when arguments are missing or malformed.
	ErrBadArguments = errors.New("command: bad arguments")
)

// Store is the task state the executor mutates.
type Store interface {
	Task(idx task.Index) (*task.Task, bool)
	SetValue(idx task.Index, v int, value float64) error
	SetText(idx task.Index, text string) error
}

// RawPublisher publishes a message outside the task model.
type RawPublisher interface {
	PublishRaw(ctx context.Context, topic, payload string, retain bool) error
}

// Logger defines the logging interface used by the executor.
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

// Config holds executor collaborators.
type Config struct {
	Store Store

	// Raw is used by the Publish command. Optional.
	Raw RawPublisher

	// OnTaskChanged is called after a command changed or requested a task's
	// values. Optional.
	OnTaskChanged func(ctx context.Context, idx task.Index)
}

// Stats counts executed commands.
type Stats struct {
	Executed uint64
	Failed   uint64
}

// Executor runs commands against the task store.
type Executor struct {
	store   Store
	raw     RawPublisher
	changed func(ctx context.Context, idx task.Index)
	logger  Logger

	executed atomic.Uint64
	failed   atomic.Uint64
}

// NewExecutor creates an executor.
func NewExecutor(cfg Config) *Executor {
	return &Executor{
		store:   cfg.Store,
		raw:     cfg.Raw,
		changed: cfg.OnTaskChanged,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the executor.
func (e *Executor) SetLogger(logger Logger) {
	e.logger = logger
}

// SetRawPublisher sets the publisher used by the Publish command.
func (e *Executor) SetRawPublisher(raw RawPublisher) {
	e.raw = raw
}

// SetOnTaskChanged replaces the task-changed callback.
func (e *Executor) SetOnTaskChanged(fn func(ctx context.Context, idx task.Index)) {
	e.changed = fn
}

// Stats returns the command counters.
func (e *Executor) Stats() Stats {
	return Stats{Executed: e.executed.Load(), Failed: e.failed.Load()}
}

// Execute implements broker.Executor. Commands always run synchronously.
func (e *Executor) Execute(ctx context.Context, _ task.Index, source broker.Source, cmd string, _ bool, _ bool) bool {
	if err := e.Run(ctx, cmd); err != nil {
		e.failed.Add(1)
		e.logger.Warn("command failed", "source", string(source), "command", cmd, "error", err)
		return false
	}
	e.executed.Add(1)
	e.logger.Debug("command executed", "source", string(source), "command", cmd)
	return true
}

// Run parses and executes one command.
func (e *Executor) Run(ctx context.Context, cmd string) error {
	name, rest, _ := strings.Cut(strings.TrimSpace(cmd), ",")

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "taskvalueset":
		return e.taskValueSet(ctx, rest)
	case "taskrun":
		return e.taskRun(ctx, rest)
	case "publish":
		return e.publish(ctx, rest)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

func (e *Executor) taskValueSet(ctx context.Context, args string) error {
	parts := strings.SplitN(args, ",", 3)
	if len(parts) != 3 {
		return fmt.Errorf("%w: TaskValueSet needs task, value and new value", ErrBadArguments)
	}

	idx, err := parseTaskNumber(parts[0])
	if err != nil {
		return err
	}
	valueNr, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || valueNr < 1 {
		return fmt.Errorf("%w: value number %q", ErrBadArguments, parts[1])
	}
	raw := strings.TrimSpace(parts[2])

	t, ok := e.store.Task(idx)
	if !ok {
		return fmt.Errorf("%w: %d", task.ErrTaskNotFound, idx)
	}

	if t.ValueKind == task.ValueString {
		if err := e.store.SetText(idx, raw); err != nil {
			return err
		}
	} else {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: value %q is not numeric", ErrBadArguments, raw)
		}
		if err := e.store.SetValue(idx, valueNr-1, value); err != nil {
			return err
		}
	}

	e.notify(ctx, idx)
	return nil
}

func (e *Executor) taskRun(ctx context.Context, args string) error {
	idx, err := parseTaskNumber(args)
	if err != nil {
		return err
	}
	if _, ok := e.store.Task(idx); !ok {
		return fmt.Errorf("%w: %d", task.ErrTaskNotFound, idx)
	}
	e.notify(ctx, idx)
	return nil
}

func (e *Executor) publish(ctx context.Context, args string) error {
	topic, payload, ok := strings.Cut(args, ",")
	topic = strings.TrimSpace(topic)
	if !ok || topic == "" {
		return fmt.Errorf("%w: Publish needs topic and payload", ErrBadArguments)
	}
	if e.raw == nil {
		return fmt.Errorf("%w: no publisher for Publish", ErrUnknownCommand)
	}
	return e.raw.PublishRaw(ctx, topic, strings.TrimSpace(payload), false)
}

func (e *Executor) notify(ctx context.Context, idx task.Index) {
	if e.changed != nil {
		e.changed(ctx, idx)
	}
}

// parseTaskNumber converts a 1-based task number to an index.
func parseTaskNumber(s string) (task.Index, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return task.InvalidIndex, fmt.Errorf("%w: task number %q", ErrBadArguments, s)
	}
	return task.Index(n - 1), nil
}
