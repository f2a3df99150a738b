package broker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-node/internal/task"
)

func publishRegistry() *mockRegistry {
	return newMockRegistry().
		add(2, mockTask{
			name: "Climate",
			kind: genericKind,
			values: []mockValue{
				{name: "Temperature", decimals: 1, unit: "C"},
				{name: ""},
				{name: "Pressure", decimals: 0, unit: "hPa"},
			},
		}).
		add(4, mockTask{
			name:   "Display",
			kind:   genericKind,
			values: []mockValue{{name: "Text"}},
		})
}

func newTestPublisher(transport *mockTransport) *Publisher {
	reg := publishRegistry()
	return NewPublisher(reg, transport, NewTemplater(reg, "node1", 7))
}

func TestPublisher_SkipsHiddenValues(t *testing.T) {
	transport := &mockTransport{}
	p := newTestPublisher(transport)

	ok := p.Publish(context.Background(), Reading{
		Controller: 1,
		Task:       2,
		Values:     []float64{21.46, 99, 1013.2},
	}, "%sysname%/%tskname%/%valname%", true)

	require.True(t, ok)
	msgs := transport.Messages()
	require.Len(t, msgs, 2)

	assert.Equal(t, "node1/Climate/Temperature", msgs[0].topic)
	assert.Equal(t, "21.5", msgs[0].payload)
	assert.True(t, msgs[0].retain)
	assert.Equal(t, 1, msgs[0].controller)
	assert.Equal(t, task.Index(2), msgs[0].idx)

	assert.Equal(t, "node1/Climate/Pressure", msgs[1].topic)
	assert.Equal(t, "1013", msgs[1].payload)
}

func TestPublisher_TemplateWithoutValueName(t *testing.T) {
	transport := &mockTransport{}
	p := newTestPublisher(transport)

	ok := p.Publish(context.Background(), Reading{Task: 2, Values: []float64{1, 2, 3}},
		"%sysname%/unit%unit%/task%tskid%", false)

	require.True(t, ok)
	for _, m := range transport.Messages() {
		assert.Equal(t, "node1/unit7/task3", m.topic)
	}
	assert.Len(t, transport.Messages(), 2)
}

func TestPublisher_ValueUnitWithoutValueName(t *testing.T) {
	transport := &mockTransport{}
	p := newTestPublisher(transport)

	ok := p.Publish(context.Background(), Reading{Task: 2, Values: []float64{21.46, 0, 1013.2}},
		"%sysname%/%tskname%/%valunit%", false)

	require.True(t, ok)
	msgs := transport.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "node1/Climate/C", msgs[0].topic)
	assert.Equal(t, "node1/Climate/hPa", msgs[1].topic)
}

func TestPublisher_StringValue(t *testing.T) {
	transport := &mockTransport{}
	p := newTestPublisher(transport)

	long := strings.Repeat("x", 64)
	ok := p.Publish(context.Background(), Reading{
		Task: 4,
		Kind: task.ValueString,
		Text: long,
	}, "%tskname%/%valname%", false)

	require.True(t, ok)
	msgs := transport.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Display/Text", msgs[0].topic)
	assert.Equal(t, long, msgs[0].payload, "full string is published, only the log is truncated")
}

func TestPublisher_PartialFailure(t *testing.T) {
	transport := &mockTransport{failOn: map[string]bool{"Climate/Temperature": true}}
	p := newTestPublisher(transport)

	ok := p.Publish(context.Background(), Reading{Task: 2, Values: []float64{1, 2, 3}},
		"%tskname%/%valname%", false)

	assert.True(t, ok, "one success is enough")
	msgs := transport.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Climate/Pressure", msgs[0].topic)
}

func TestPublisher_AllFail(t *testing.T) {
	transport := &mockTransport{failOn: map[string]bool{
		"Climate/Temperature": true,
		"Climate/Pressure":    true,
	}}
	p := newTestPublisher(transport)

	ok := p.Publish(context.Background(), Reading{Task: 2, Values: []float64{1, 2, 3}},
		"%tskname%/%valname%", false)

	assert.False(t, ok)
}

func TestPublisher_AllHidden(t *testing.T) {
	reg := newMockRegistry().add(0, mockTask{name: "Hidden", values: []mockValue{{}, {}}})
	transport := &mockTransport{}
	p := NewPublisher(reg, transport, NewTemplater(reg, "n", 0))

	assert.False(t, p.Publish(context.Background(), Reading{Task: 0, Values: []float64{1, 2}}, "t", false))
	assert.Empty(t, transport.Messages())
}

func TestPublisher_MissingValuesFormatAsZero(t *testing.T) {
	transport := &mockTransport{}
	p := newTestPublisher(transport)

	p.Publish(context.Background(), Reading{Task: 2}, "%valname%", false)

	msgs := transport.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "0", msgs[0].payload)
}

func TestTemplater(t *testing.T) {
	reg := publishRegistry()
	tpl := NewTemplater(reg, "node1", 3)
	r := &Reading{Task: 2}

	assert.True(t, tpl.HasPlaceholder("a/%valname%", PlaceholderValueName))
	assert.False(t, tpl.HasPlaceholder("a/b", PlaceholderValueName))

	assert.Equal(t, "Pressure/hPa", tpl.SubstituteValue("%valname%/%valunit%", r, 2))
	assert.Equal(t, "node1/3/Climate/3", tpl.Substitute("%sysname%/%unit%/%tskname%/%tskid%", r))
	assert.Equal(t, "node1/%tskname%", tpl.SubstituteNode("%sysname%/%tskname%", task.InvalidIndex))
	assert.Equal(t, "ha/switch/x", SubstituteDeviceClass("ha/%devclass%/x", "switch"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 20))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "éé", truncate("ééé", 2))
}
