package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeEvent(t *testing.T) {
	tests := []struct {
		cmd  string
		want string
	}{
		{"event,myevent,1,2", "myevent=1,2"},
		{"event,myevent=,1,2", "myevent=1,2"},
		{"event,myevent=1,2,3", "myevent=1,2,3"},
		{"event,myevent", "myevent"},
		{"event,myevent=", "myevent"},
		{"asyncevent,Boot", "Boot"},
		{"Event,MyEvent,5", "MyEvent=5"},
		{"event myevent", "myevent"},
		{"event, spaced , 1", "spaced=1"},
		{`event,label="a,b"`, `label="a,b"`},
		{"event,mode=3,heat", "mode=3,heat"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeEvent(tt.cmd))
		})
	}
}

func TestIsEventCommand(t *testing.T) {
	assert.True(t, IsEventCommand("event,x"))
	assert.True(t, IsEventCommand("AsyncEvent,x"))
	assert.True(t, IsEventCommand("event"))
	assert.False(t, IsEventCommand("gpio,14,0"))
	assert.False(t, IsEventCommand("events,x"))
	assert.False(t, IsEventCommand(""))
}

func TestEnumPosition(t *testing.T) {
	tests := []struct {
		name    string
		labels  string
		payload string
		want    int
	}{
		{"first", "off,heat,cool", "off", 1},
		{"case insensitive", "off,heat,cool", "HEAT", 2},
		{"last", "off,heat,cool", "cool", 3},
		{"not found falls back past end", "off,heat,cool", "auto", 4},
		{"empty list", "", "x", 1},
		{"stops at empty label", "a,,c", "c", 2},
		{"trimmed labels", " a , b ", "b", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, enumPosition(tt.labels, tt.payload))
		})
	}
}

func TestWrapWithQuotes(t *testing.T) {
	assert.Equal(t, `"hello"`, wrapWithQuotes("hello"))
	assert.Equal(t, `'say "hi"'`, wrapWithQuotes(`say "hi"`))
	assert.Equal(t, "`it's \"x\"`", wrapWithQuotes(`it's "x"`))
	assert.Equal(t, `"already"`, wrapWithQuotes(`"already"`))
	assert.Equal(t, `""`, wrapWithQuotes(""))
}

func TestSplitArg(t *testing.T) {
	first, rest := splitArg("gpio,14,0", true)
	assert.Equal(t, "gpio", first)
	assert.Equal(t, "14,0", rest)

	first, rest = splitArg(" TaskValueSet 4,2,14", true)
	assert.Equal(t, "TaskValueSet", first)
	assert.Equal(t, "4,2,14", rest)

	first, rest = splitArg("a b,c", false)
	assert.Equal(t, "a b", first)
	assert.Equal(t, "c", rest)

	first, rest = splitArg("single", true)
	assert.Equal(t, "single", first)
	assert.Empty(t, rest)
}
