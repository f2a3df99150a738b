package task

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Registry.
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

type entry struct {
	task   *Task
	values []float64
	text   string
}

// Registry is the in-memory task registry.
//
// Task definitions are immutable after construction; only the current values
// change. Name lookups are case-insensitive.
type Registry struct {
	mu     sync.RWMutex
	tasks  map[Index]*entry
	byName map[string]Index
	order  []Index
	logger Logger
}

// NewRegistry builds a registry from task definitions.
func NewRegistry(defs []config.TaskConfig) (*Registry, error) {
	r := &Registry{
		tasks:  make(map[Index]*entry, len(defs)),
		byName: make(map[string]Index, len(defs)),
		logger: noopLogger{},
	}

	for i := range defs {
		t, err := fromConfig(&defs[i])
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(t.Name)
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("%w: duplicate task name %q", ErrInvalidTask, t.Name)
		}
		if _, dup := r.tasks[t.Index]; dup {
			return nil, fmt.Errorf("%w: duplicate task index %d", ErrInvalidTask, t.Index)
		}

		e := &entry{task: t, values: make([]float64, len(t.Values))}
		for v := range defs[i].Values {
			e.values[v] = defs[i].Values[v].Initial
		}
		r.tasks[t.Index] = e
		r.byName[key] = t.Index
		r.order = append(r.order, t.Index)
	}

	sort.Slice(r.order, func(a, b int) bool { return r.order[a] < r.order[b] })
	return r, nil
}

func fromConfig(c *config.TaskConfig) (*Task, error) {
	if c.Index < 0 {
		return nil, fmt.Errorf("%w: task %q has negative index", ErrInvalidTask, c.Name)
	}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: task %d has no name", ErrInvalidTask, c.Index)
	}
	if len(c.Values) > config.MaxTaskValues {
		return nil, fmt.Errorf("%w: task %q has %d values", ErrInvalidTask, c.Name, len(c.Values))
	}

	vk, ok := ParseValueKind(c.ValueKind)
	if !ok {
		return nil, fmt.Errorf("%w: %q (task %q)", ErrUnknownValueKind, c.ValueKind, c.Name)
	}

	t := &Task{
		Index:       Index(c.Index),
		Name:        c.Name,
		Kind:        Kind(c.DeviceKind),
		ValueKind:   vk,
		Enabled:     c.Enabled,
		Controllers: append([]int(nil), c.Controllers...),
		Values:      make([]Value, len(c.Values)),
	}

	for i, v := range c.Values {
		t.Values[i] = Value{
			Name:       v.Name,
			Decimals:   v.Decimals,
			Format:     Format(v.Format),
			EnumLabels: v.EnumLabels,
			Unit:       v.Unit,
		}
	}

	if len(c.ValueHints) > 0 {
		t.Hints = make([]ValueKind, len(c.ValueHints))
		for i, h := range c.ValueHints {
			hk, ok := ParseValueKind(h)
			if !ok {
				return nil, fmt.Errorf("%w: hint %q (task %q)", ErrUnknownValueKind, h, c.Name)
			}
			t.Hints[i] = hk
		}
	}

	return t, nil
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Len returns the number of configured tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Task returns a copy of the task definition at idx.
func (r *Registry) Task(idx Index) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tasks[idx]
	if !ok {
		return nil, false
	}
	return e.task.DeepCopy(), true
}

// Tasks returns copies of all task definitions, ordered by index.
func (r *Registry) Tasks() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Task, 0, len(r.order))
	for _, idx := range r.order {
		out = append(out, *r.tasks[idx].task.DeepCopy())
	}
	return out
}

// ResolveTask finds a task index by name.
func (r *Registry) ResolveTask(name string) (Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byName[strings.ToLower(name)]
	return idx, ok
}

// DeviceKind returns the device kind of the task at idx.
func (r *Registry) DeviceKind(idx Index) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tasks[idx]
	if !ok {
		return 0, false
	}
	return e.task.Kind, true
}

// TaskName returns the task name, or "" when idx is not configured.
func (r *Registry) TaskName(idx Index) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.tasks[idx]; ok {
		return e.task.Name
	}
	return ""
}

// ValueIndex finds a value index by name within a task.
func (r *Registry) ValueIndex(idx Index, name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tasks[idx]
	if !ok || name == "" {
		return 0, false
	}
	for i, v := range e.task.Values {
		if strings.EqualFold(v.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// ValueCount returns the number of values of the task at idx.
func (r *Registry) ValueCount(idx Index) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.tasks[idx]; ok {
		return len(e.task.Values)
	}
	return 0
}

// value returns the value definition, or nil when out of range.
// Caller must hold r.mu.
func (r *Registry) value(idx Index, v int) *Value {
	e, ok := r.tasks[idx]
	if !ok || v < 0 || v >= len(e.task.Values) {
		return nil
	}
	return &e.task.Values[v]
}

// ValueName returns the display name of a value. Empty means hidden.
func (r *Registry) ValueName(idx Index, v int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if val := r.value(idx, v); val != nil {
		return val.Name
	}
	return ""
}

// ValueFormat returns the format hint of a value.
func (r *Registry) ValueFormat(idx Index, v int) Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if val := r.value(idx, v); val != nil {
		return val.Format
	}
	return FormatDefault
}

// EnumLabels returns the comma-separated enumeration labels of a value.
func (r *Registry) EnumLabels(idx Index, v int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if val := r.value(idx, v); val != nil {
		return val.EnumLabels
	}
	return ""
}

// ValueDecimals returns the number of decimals used when formatting a value.
func (r *Registry) ValueDecimals(idx Index, v int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if val := r.value(idx, v); val != nil {
		return val.Decimals
	}
	return 0
}

// ValueUnit returns the unit of a value.
func (r *Registry) ValueUnit(idx Index, v int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if val := r.value(idx, v); val != nil {
		return val.Unit
	}
	return ""
}

// Values returns a copy of the current values of a task.
func (r *Registry) Values(idx Index) ([]float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tasks[idx]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), e.values...), true
}

// Text returns the current string payload of a string-typed task.
func (r *Registry) Text(idx Index) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.tasks[idx]; ok {
		return e.text
	}
	return ""
}

// SetValue stores a new value.
func (r *Registry) SetValue(idx Index, v int, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[idx]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, idx)
	}
	if v < 0 || v >= len(e.values) {
		return fmt.Errorf("%w: task %d value %d", ErrValueIndex, idx, v)
	}

	e.values[v] = value
	r.logger.Debug("task value set", "task", e.task.Name, "value", v, "new", value)
	return nil
}

// SetText stores the string payload of a task.
func (r *Registry) SetText(idx Index, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[idx]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, idx)
	}
	e.text = text
	return nil
}
