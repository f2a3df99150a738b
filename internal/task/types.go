package task

import "strings"

// Index is a 0-based task slot.
type Index int

// InvalidIndex marks "no task" (e.g., commands not tied to a task).
const InvalidIndex Index = -1

// Valid reports whether the index addresses a slot.
func (i Index) Valid() bool { return i >= 0 }

// Kind identifies the device plugin backing a task.
type Kind uint16

// Device kinds with broker-side special handling.
const (
	// KindDummy is the dynamic value holder; its values can be set remotely.
	KindDummy Kind = 33

	// KindEventReceiver turns inbound values into rule events instead of
	// storing them.
	KindEventReceiver Kind = 86
)

// Format is the per-value format hint.
type Format uint8

// Value formats understood by the event receiver.
const (
	FormatDefault Format = 0

	// FormatString quote-wraps inbound payloads.
	FormatString Format = 3

	// FormatEnum maps inbound payloads to their 1-based enumeration position.
	FormatEnum Format = 4
)

// ValueKind is the semantic type of a value or group of values.
type ValueKind uint8

// Semantic value kinds. The numbering is stable and used in configuration
// and discovery hints.
const (
	ValueNone ValueKind = iota
	ValueSingle
	ValueDual
	ValueTriple
	ValueQuad
	ValueTempHum
	ValueTempBaro
	ValueTempHumBaro
	ValueTempEmptyBaro
	ValueSwitch
	ValueDimmer
	ValueWind
	ValueString
	ValueULong
	ValueAnalog
	ValueTemp
	ValueHum
	ValueLux
	ValueDistance
	ValueDirection
	ValuePM25
	ValuePM10Micron // PM1.0
	ValuePM10
	ValueMoisture
	ValueCO2
	ValueGPS
	ValueUV
	ValueUVIndex
	ValueIR
	ValueUInt32Dual
	ValueUInt32Triple
	ValueUInt32Quad
	ValueInt32Single
	ValueInt32Dual
	ValueInt32Triple
	ValueInt32Quad
	ValueUInt64Single
	ValueUInt64Dual
	ValueInt64Single
	ValueInt64Dual
	ValueDoubleSingle
	ValueDoubleDual
	ValueNotSet
)

var valueKindNames = [...]string{
	ValueNone:          "none",
	ValueSingle:        "single",
	ValueDual:          "dual",
	ValueTriple:        "triple",
	ValueQuad:          "quad",
	ValueTempHum:       "temp_hum",
	ValueTempBaro:      "temp_baro",
	ValueTempHumBaro:   "temp_hum_baro",
	ValueTempEmptyBaro: "temp_empty_baro",
	ValueSwitch:        "switch",
	ValueDimmer:        "dimmer",
	ValueWind:          "wind",
	ValueString:        "string",
	ValueULong:         "ulong",
	ValueAnalog:        "analog",
	ValueTemp:          "temp",
	ValueHum:           "hum",
	ValueLux:           "lux",
	ValueDistance:      "distance",
	ValueDirection:     "direction",
	ValuePM25:          "pm2_5",
	ValuePM10Micron:    "pm1_0",
	ValuePM10:          "pm10",
	ValueMoisture:      "moisture",
	ValueCO2:           "co2",
	ValueGPS:           "gps",
	ValueUV:            "uv",
	ValueUVIndex:       "uv_index",
	ValueIR:            "ir",
	ValueUInt32Dual:    "uint32_dual",
	ValueUInt32Triple:  "uint32_triple",
	ValueUInt32Quad:    "uint32_quad",
	ValueInt32Single:   "int32_single",
	ValueInt32Dual:     "int32_dual",
	ValueInt32Triple:   "int32_triple",
	ValueInt32Quad:     "int32_quad",
	ValueUInt64Single:  "uint64_single",
	ValueUInt64Dual:    "uint64_dual",
	ValueInt64Single:   "int64_single",
	ValueInt64Dual:     "int64_dual",
	ValueDoubleSingle:  "double_single",
	ValueDoubleDual:    "double_dual",
	ValueNotSet:        "not_set",
}

// String returns the configuration name of the kind.
func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "unknown"
}

// ParseValueKind looks up a kind by its configuration name (case-insensitive).
// An empty name parses as ValueNone.
func ParseValueKind(name string) (ValueKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ValueNone, true
	}
	for i, n := range valueKindNames {
		if n == name {
			return ValueKind(i), true
		}
	}
	return ValueNone, false
}

// Value describes one configured value of a task.
type Value struct {
	Name       string
	Decimals   int
	Format     Format
	EnumLabels string
	Unit       string
}

// Task is a configured task.
type Task struct {
	Index       Index
	Name        string
	Kind        Kind
	ValueKind   ValueKind
	Enabled     bool
	Controllers []int
	Values      []Value

	// Hints are per-value semantic kinds supplied by the device kind for
	// discovery. Nil when the device kind provides none.
	Hints []ValueKind
}

// SelectedFor reports whether the task reports to the given controller.
func (t *Task) SelectedFor(controller int) bool {
	for _, c := range t.Controllers {
		if c == controller {
			return true
		}
	}
	return false
}

// DeepCopy returns a copy that shares no slices with t.
func (t *Task) DeepCopy() *Task {
	cp := *t
	cp.Controllers = append([]int(nil), t.Controllers...)
	cp.Values = append([]Value(nil), t.Values...)
	if t.Hints != nil {
		cp.Hints = append([]ValueKind(nil), t.Hints...)
	}
	return &cp
}
