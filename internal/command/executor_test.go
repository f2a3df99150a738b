package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-node/internal/broker"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/task"
)

type rawMessage struct {
	topic   string
	payload string
}

type mockRaw struct {
	mu   sync.Mutex
	msgs []rawMessage
	err  error
}

func (m *mockRaw) PublishRaw(_ context.Context, topic, payload string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, rawMessage{topic, payload})
	return nil
}

func newTestStore(t *testing.T) *task.Registry {
	t.Helper()
	reg, err := task.NewRegistry([]config.TaskConfig{
		{
			Index:      3,
			Name:       "DummyTask",
			DeviceKind: int(task.KindDummy),
			Enabled:    true,
			Values: []config.TaskValueConfig{
				{Name: "Other"},
				{Name: "DummyVar"},
			},
		},
		{
			Index:      4,
			Name:       "Text",
			DeviceKind: int(task.KindDummy),
			ValueKind:  "string",
			Values:     []config.TaskValueConfig{{Name: "Line"}},
		},
	})
	require.NoError(t, err)
	return reg
}

func TestExecutor_TaskValueSet(t *testing.T) {
	store := newTestStore(t)
	var changed []task.Index
	e := NewExecutor(Config{
		Store:         store,
		OnTaskChanged: func(_ context.Context, idx task.Index) { changed = append(changed, idx) },
	})

	ok := e.Execute(context.Background(), task.InvalidIndex, broker.SourceMQTT, "TaskValueSet,4,2,14", true, false)

	require.True(t, ok)
	values, _ := store.Values(3)
	assert.Equal(t, []float64{0, 14}, values)
	assert.Equal(t, []task.Index{3}, changed)
	assert.Equal(t, Stats{Executed: 1}, e.Stats())
}

func TestExecutor_TaskValueSetString(t *testing.T) {
	store := newTestStore(t)
	e := NewExecutor(Config{Store: store})

	require.NoError(t, e.Run(context.Background(), "taskvalueset,5,1,hello, world"))
	assert.Equal(t, "hello, world", store.Text(4))
}

func TestExecutor_Errors(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want error
	}{
		{"unknown command", "gpio,14,0", ErrUnknownCommand},
		{"missing args", "TaskValueSet,4", ErrBadArguments},
		{"bad task number", "TaskValueSet,x,1,1", ErrBadArguments},
		{"zero task number", "TaskValueSet,0,1,1", ErrBadArguments},
		{"bad value number", "TaskValueSet,4,0,1", ErrBadArguments},
		{"non numeric value", "TaskValueSet,4,1,abc", ErrBadArguments},
		{"unknown task", "TaskValueSet,9,1,1", task.ErrTaskNotFound},
		{"value out of range", "TaskValueSet,4,3,1", task.ErrValueIndex},
		{"taskrun unknown task", "TaskRun,9", task.ErrTaskNotFound},
		{"publish without payload", "Publish,topic", ErrBadArguments},
		{"publish without publisher", "Publish,topic,1", ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExecutor(Config{Store: newTestStore(t)})
			err := e.Run(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExecutor_FailureCounted(t *testing.T) {
	e := NewExecutor(Config{Store: newTestStore(t)})

	ok := e.Execute(context.Background(), task.InvalidIndex, broker.SourceMQTT, "nope", true, false)

	assert.False(t, ok)
	assert.Equal(t, Stats{Failed: 1}, e.Stats())
}

func TestExecutor_TaskRun(t *testing.T) {
	var changed []task.Index
	e := NewExecutor(Config{Store: newTestStore(t)})
	e.SetOnTaskChanged(func(_ context.Context, idx task.Index) { changed = append(changed, idx) })

	require.NoError(t, e.Run(context.Background(), "TaskRun,4"))
	assert.Equal(t, []task.Index{3}, changed)
}

func TestExecutor_Publish(t *testing.T) {
	raw := &mockRaw{}
	e := NewExecutor(Config{Store: newTestStore(t), Raw: raw})

	require.NoError(t, e.Run(context.Background(), "Publish,node/status, online "))
	assert.Equal(t, []rawMessage{{"node/status", "online"}}, raw.msgs)

	raw.err = errors.New("not connected")
	assert.Error(t, e.Run(context.Background(), "Publish,node/status,x"))
}
