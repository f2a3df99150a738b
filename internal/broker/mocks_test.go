package broker

import (
	"context"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-node/internal/task"
)

// =============================================================================
// Mock Registry
// =============================================================================

type mockValue struct {
	name     string
	format   task.Format
	labels   string
	decimals int
	unit     string
}

type mockTask struct {
	name   string
	kind   task.Kind
	values []mockValue
}

type mockRegistry struct {
	tasks map[task.Index]mockTask
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{tasks: make(map[task.Index]mockTask)}
}

func (m *mockRegistry) add(idx task.Index, t mockTask) *mockRegistry {
	m.tasks[idx] = t
	return m
}

func (m *mockRegistry) ResolveTask(name string) (task.Index, bool) {
	for idx, t := range m.tasks {
		if strings.EqualFold(t.name, name) {
			return idx, true
		}
	}
	return task.InvalidIndex, false
}

func (m *mockRegistry) DeviceKind(idx task.Index) (task.Kind, bool) {
	t, ok := m.tasks[idx]
	return t.kind, ok
}

func (m *mockRegistry) ValueIndex(idx task.Index, name string) (int, bool) {
	for i, v := range m.tasks[idx].values {
		if v.name != "" && strings.EqualFold(v.name, name) {
			return i, true
		}
	}
	return 0, false
}

func (m *mockRegistry) ValueCount(idx task.Index) int {
	return len(m.tasks[idx].values)
}

func (m *mockRegistry) value(idx task.Index, v int) mockValue {
	values := m.tasks[idx].values
	if v < 0 || v >= len(values) {
		return mockValue{}
	}
	return values[v]
}

func (m *mockRegistry) TaskName(idx task.Index) string { return m.tasks[idx].name }
func (m *mockRegistry) ValueName(idx task.Index, v int) string { return m.value(idx, v).name }
func (m *mockRegistry) ValueUnit(idx task.Index, v int) string { return m.value(idx, v).unit }
func (m *mockRegistry) EnumLabels(idx task.Index, v int) string { return m.value(idx, v).labels }
func (m *mockRegistry) ValueDecimals(idx task.Index, v int) int { return m.value(idx, v).decimals }
func (m *mockRegistry) ValueFormat(idx task.Index, v int) task.Format {
	return m.value(idx, v).format
}

// =============================================================================
// Mock Executor
// =============================================================================

type executed struct {
	idx             task.Index
	source          Source
	cmd             string
	synchronous     bool
	tryRemoteConfig bool
}

type mockExecutor struct {
	mu    sync.Mutex
	calls []executed
}

func (m *mockExecutor) Execute(_ context.Context, idx task.Index, source Source, cmd string, synchronous, tryRemoteConfig bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, executed{idx, source, cmd, synchronous, tryRemoteConfig})
	return true
}

func (m *mockExecutor) Calls() []executed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]executed(nil), m.calls...)
}

// =============================================================================
// Mock Event Queue
// =============================================================================

type mockQueue struct {
	mu     sync.Mutex
	events []string
}

func (m *mockQueue) EnqueueUnique(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e == event {
			return false
		}
	}
	m.events = append(m.events, event)
	return true
}

func (m *mockQueue) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// =============================================================================
// Mock Transport
// =============================================================================

type published struct {
	controller int
	idx        task.Index
	topic      string
	payload    string
	retain     bool
}

type mockTransport struct {
	mu       sync.Mutex
	messages []published
	failOn   map[string]bool
}

func (m *mockTransport) Publish(_ context.Context, controller int, idx task.Index, topic, payload string, retain bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[topic] {
		return false
	}
	m.messages = append(m.messages, published{controller, idx, topic, payload, retain})
	return true
}

func (m *mockTransport) Messages() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.messages...)
}
