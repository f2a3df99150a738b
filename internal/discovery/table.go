package discovery

import "github.com/nerrad567/gray-logic-node/internal/task"

// allValues as a rule count means "the task's value count".
const allValues = 0

// rule is one classification entry of the static table.
type rule struct {
	kind   task.ValueKind
	count  uint8
	offset uint8

	// onlyWithValues, when non-zero, applies the rule only to tasks with
	// exactly that many values.
	onlyWithValues uint8
}

func (r rule) item(valueCount uint8) (Item, bool) {
	if r.onlyWithValues != 0 && r.onlyWithValues != valueCount {
		return Item{}, false
	}
	count := r.count
	if count == allValues {
		count = valueCount
	}
	return Item{Kind: r.kind, Count: count, Offset: r.offset}, true
}

// kindTable maps device kinds whose declared value kind is missing or wrong
// to their classification.
var kindTable = map[task.Kind][]rule{}

// ignoredKinds are device kinds whose values cannot be described generically
// (multi-channel colour, load cells, GPS, RFID readers, energy meters and
// similar). They produce no discovery items unless a hook supplies them.
var ignoredKinds = map[task.Kind]bool{}

func addKinds(rules []rule, kinds ...task.Kind) {
	for _, k := range kinds {
		kindTable[k] = rules
	}
}

func init() {
	whole := func(k task.ValueKind) []rule { return []rule{{kind: k, count: allValues}} }

	addKinds(whole(task.ValueAnalog), 2, 7, 25, 60)
	addKinds(whole(task.ValueTemp), 4, 24, 39, 69, 150)
	addKinds(whole(task.ValueLux), 10, 168)
	addKinds(whole(task.ValuePM25), 18, 144)
	addKinds(whole(task.ValueTempHumBaro), 106)
	addKinds(whole(task.ValueCO2), 127)
	addKinds(whole(task.ValueDistance), 134)

	addKinds([]rule{ // distance sensor with auxiliary output
		{kind: task.ValueDistance, count: 1, offset: 0},
		{kind: task.ValueSwitch, count: 1, offset: 1},
	}, 13)
	addKinds([]rule{
		{kind: task.ValueTempHum, count: 1, offset: 0},
		{kind: task.ValueAnalog, count: 1, offset: 2},
	}, 14)
	addKinds([]rule{
		{kind: task.ValueLux, count: 1, offset: 0},
		{kind: task.ValueIR, count: 1, offset: 1},
		{kind: task.ValueLux, count: 1, offset: 2},
	}, 15)
	addKinds([]rule{ // soil moisture, optional light sensor
		{kind: task.ValueTemp, count: 1, offset: 0},
		{kind: task.ValueMoisture, count: 1, offset: 1},
		{kind: task.ValueLux, count: 1, offset: 2, onlyWithValues: 3},
	}, 47)
	addKinds([]rule{
		{kind: task.ValueCO2, count: 1, offset: 0},
		{kind: task.ValueTemp, count: 1, offset: 1},
	}, 49)
	addKinds([]rule{
		{kind: task.ValuePM10Micron, count: 1, offset: 0},
		{kind: task.ValuePM25, count: 1, offset: 1},
		{kind: task.ValuePM10, count: 1, offset: 2},
	}, 53, 175)
	addKinds([]rule{
		{kind: task.ValuePM25, count: 1, offset: 0},
		{kind: task.ValuePM10, count: 1, offset: 1},
	}, 56)
	addKinds([]rule{
		{kind: task.ValueLux, count: 3, offset: 0},
		{kind: task.ValueUV, count: 1, offset: 3},
	}, 74)
	addKinds([]rule{
		{kind: task.ValueUV, count: 1, offset: 0},
		{kind: task.ValueUVIndex, count: 1, offset: 1},
	}, 84)
	addKinds([]rule{
		{kind: task.ValueLux, count: 1, offset: 0},
		{kind: task.ValueIR, count: 1, offset: 1},
		{kind: task.ValueUV, count: 1, offset: 2},
	}, 107)
	addKinds([]rule{
		{kind: task.ValueDistance, count: 1, offset: 0},
		{kind: task.ValueDirection, count: 1, offset: 1},
	}, 110)
	addKinds([]rule{
		{kind: task.ValueDistance, count: 1, offset: 0},
		{kind: task.ValueLux, count: 1, offset: 1},
		{kind: task.ValueDirection, count: 1, offset: 2},
	}, 113)
	addKinds([]rule{
		{kind: task.ValueUV, count: 2, offset: 0},
		{kind: task.ValueUVIndex, count: 1, offset: 2},
	}, 114)
	addKinds([]rule{
		{kind: task.ValueUV, count: 1, offset: 0},
		{kind: task.ValueUVIndex, count: 1, offset: 1},
		{kind: task.ValueLux, count: 2, offset: 2},
	}, 133)
	addKinds([]rule{
		{kind: task.ValueCO2, count: 1, offset: 0},
		{kind: task.ValueTempHum, count: 1, offset: 1},
	}, 135)

	for _, k := range []task.Kind{
		// pulse counters, system info, dynamic value holders, keypads
		3, 26, task.KindDummy, 61, 62, 63,
		// readers, meters and multi-channel sensors
		8, 17, 27, 40, 45, 50, 52, 64, 66, 67, 71, 76, 77, 78, 82, 83, 85,
		90, 92, 93, 102, 103, 108, 111, 112, 115, 117, 132, 142, 145, 147,
		151, 159, 163, 164, 167, 169,
	} {
		ignoredKinds[k] = true
	}
}
