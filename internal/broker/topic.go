package broker

import "strings"

// TopicKind classifies an inbound topic.
type TopicKind int

const (
	// TopicUnresolved means the topic is neither an accepted command nor a
	// well-formed set topic.
	TopicUnresolved TopicKind = iota

	// TopicCommand means the payload is raw command text.
	TopicCommand

	// TopicSet means the payload is a new value for TaskName/ValueName.
	TopicSet
)

// String returns a readable name for logs.
func (k TopicKind) String() string {
	switch k {
	case TopicCommand:
		return "cmd"
	case TopicSet:
		return "set"
	default:
		return "unresolved"
	}
}

// Topic suffixes.
const (
	SuffixCmd = "cmd"
	SuffixSet = "set"
)

// Parsed is the result of ParseTopic.
type Parsed struct {
	Kind      TopicKind
	TaskName  string
	ValueName string
}

// ParseTopic classifies topic by its last segment.
//
// A "cmd" suffix is accepted when acceptCmd is set. A "set" suffix is
// accepted when acceptSet is set and at least three segments precede it
// ("<prefix>/<task>/<value>/set"); the prefix segment itself may contain
// further slashes.
func ParseTopic(topic string, acceptCmd, acceptSet bool) Parsed {
	slash := strings.LastIndexByte(topic, '/')
	last := topic[slash+1:]

	if acceptCmd && last == SuffixCmd {
		return Parsed{Kind: TopicCommand}
	}

	if !acceptSet || last != SuffixSet || slash < 0 {
		return Parsed{}
	}

	rest := topic[:slash]
	slash = strings.LastIndexByte(rest, '/')
	if slash < 0 {
		return Parsed{}
	}
	valueName := rest[slash+1:]
	rest = rest[:slash]

	slash = strings.LastIndexByte(rest, '/')
	if slash < 0 {
		return Parsed{}
	}

	return Parsed{
		Kind:      TopicSet,
		TaskName:  rest[slash+1:],
		ValueName: valueName,
	}
}
