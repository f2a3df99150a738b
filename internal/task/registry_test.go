package task

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

func testDefs() []config.TaskConfig {
	return []config.TaskConfig{
		{
			Index:       3,
			Name:        "DummyTask",
			DeviceKind:  int(KindDummy),
			ValueKind:   "dual",
			Enabled:     true,
			Controllers: []int{0},
			Values: []config.TaskValueConfig{
				{Name: "First", Initial: 1.5},
				{Name: "DummyVar", Decimals: 2, Unit: "°C"},
			},
		},
		{
			Index:      0,
			Name:       "Homie",
			DeviceKind: int(KindEventReceiver),
			Enabled:    true,
			Values: []config.TaskValueConfig{
				{Name: "mode", Format: int(FormatEnum), EnumLabels: "off,heat,cool"},
				{Name: "label", Format: int(FormatString)},
			},
			ValueHints: []string{"switch", "none"},
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(testDefs())
	require.NoError(t, err)
	return r
}

func TestNewRegistry(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, 2, r.Len())

	tasks := r.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, Index(0), tasks[0].Index, "tasks are ordered by index")
	assert.Equal(t, Index(3), tasks[1].Index)

	homie, ok := r.Task(0)
	require.True(t, ok)
	assert.Equal(t, []ValueKind{ValueSwitch, ValueNone}, homie.Hints)

	dummy, ok := r.Task(3)
	require.True(t, ok)
	assert.Nil(t, dummy.Hints)
	assert.Equal(t, ValueDual, dummy.ValueKind)
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name string
		defs []config.TaskConfig
		want error
	}{
		{
			name: "unknown value kind",
			defs: []config.TaskConfig{{Index: 0, Name: "A", DeviceKind: 1, ValueKind: "plasma"}},
			want: ErrUnknownValueKind,
		},
		{
			name: "unknown hint",
			defs: []config.TaskConfig{{Index: 0, Name: "A", DeviceKind: 1, ValueHints: []string{"bogus"}}},
			want: ErrUnknownValueKind,
		},
		{
			name: "duplicate name",
			defs: []config.TaskConfig{
				{Index: 0, Name: "A", DeviceKind: 1},
				{Index: 1, Name: "a", DeviceKind: 1},
			},
			want: ErrInvalidTask,
		},
		{
			name: "duplicate index",
			defs: []config.TaskConfig{
				{Index: 0, Name: "A", DeviceKind: 1},
				{Index: 0, Name: "B", DeviceKind: 1},
			},
			want: ErrInvalidTask,
		},
		{
			name: "missing name",
			defs: []config.TaskConfig{{Index: 0, DeviceKind: 1}},
			want: ErrInvalidTask,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.defs)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegistry_Lookups(t *testing.T) {
	r := newTestRegistry(t)

	idx, ok := r.ResolveTask("dummytask")
	require.True(t, ok, "task names resolve case-insensitively")
	assert.Equal(t, Index(3), idx)

	_, ok = r.ResolveTask("missing")
	assert.False(t, ok)

	kind, ok := r.DeviceKind(3)
	require.True(t, ok)
	assert.Equal(t, KindDummy, kind)

	_, ok = r.DeviceKind(9)
	assert.False(t, ok)

	v, ok := r.ValueIndex(3, "DUMMYVAR")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.ValueIndex(3, "")
	assert.False(t, ok)

	assert.Equal(t, "DummyTask", r.TaskName(3))
	assert.Equal(t, "", r.TaskName(9))
	assert.Equal(t, 2, r.ValueCount(3))
	assert.Equal(t, 0, r.ValueCount(9))
	assert.Equal(t, "DummyVar", r.ValueName(3, 1))
	assert.Equal(t, "", r.ValueName(3, 7))
	assert.Equal(t, 2, r.ValueDecimals(3, 1))
	assert.Equal(t, "°C", r.ValueUnit(3, 1))
	assert.Equal(t, FormatEnum, r.ValueFormat(0, 0))
	assert.Equal(t, FormatString, r.ValueFormat(0, 1))
	assert.Equal(t, FormatDefault, r.ValueFormat(9, 0))
	assert.Equal(t, "off,heat,cool", r.EnumLabels(0, 0))
}

func TestRegistry_SetValue(t *testing.T) {
	r := newTestRegistry(t)

	values, ok := r.Values(3)
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 0}, values)

	require.NoError(t, r.SetValue(3, 1, 14))
	values, _ = r.Values(3)
	assert.Equal(t, []float64{1.5, 14}, values)

	assert.ErrorIs(t, r.SetValue(9, 0, 1), ErrTaskNotFound)
	assert.ErrorIs(t, r.SetValue(3, 2, 1), ErrValueIndex)
	assert.ErrorIs(t, r.SetValue(3, -1, 1), ErrValueIndex)
}

func TestRegistry_Text(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.SetText(0, "hello"))
	assert.Equal(t, "hello", r.Text(0))
	assert.ErrorIs(t, r.SetText(9, "x"), ErrTaskNotFound)
}

func TestRegistry_CopiesAreIndependent(t *testing.T) {
	r := newTestRegistry(t)

	tk, _ := r.Task(3)
	tk.Values[1].Name = "mutated"
	tk.Controllers[0] = 42

	assert.Equal(t, "DummyVar", r.ValueName(3, 1))
	fresh, _ := r.Task(3)
	assert.True(t, fresh.SelectedFor(0))

	values, _ := r.Values(3)
	values[0] = 99
	again, _ := r.Values(3)
	assert.Equal(t, 1.5, again[0])
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := newTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.SetValue(3, 0, float64(n*j))
				_, _ = r.Values(3)
				_, _ = r.ResolveTask("DummyTask")
			}
		}(i)
	}
	wg.Wait()
}

func TestParseValueKind(t *testing.T) {
	tests := []struct {
		in   string
		want ValueKind
		ok   bool
	}{
		{"", ValueNone, true},
		{"switch", ValueSwitch, true},
		{" Temp_Hum_Baro ", ValueTempHumBaro, true},
		{"pm1_0", ValuePM10Micron, true},
		{"not_set", ValueNotSet, true},
		{"nope", ValueNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseValueKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueKind_String(t *testing.T) {
	assert.Equal(t, "switch", ValueSwitch.String())
	assert.Equal(t, "uv_index", ValueUVIndex.String())
	assert.Equal(t, "unknown", ValueKind(200).String())

	for k := ValueNone; k <= ValueNotSet; k++ {
		parsed, ok := ParseValueKind(k.String())
		assert.True(t, ok, k.String())
		assert.Equal(t, k, parsed)
	}
}

func TestIndex_Valid(t *testing.T) {
	assert.True(t, Index(0).Valid())
	assert.False(t, InvalidIndex.Valid())
}
