// Package discovery announces the node's tasks to home-automation platforms.
//
// Every enabled task selected for a broker connection is classified into
// Items, each a run of consecutive values sharing one semantic kind.
// Classification uses, in order: a static table keyed by device kind, a set
// of device kinds that are never announced, the task's declared value kind,
// and finally per-value hints supplied by the device kind (Hook), which
// replace everything else.
//
// The Emitter turns switch items into Home-Assistant-style discovery
// entries, one per value:
//
//	{"~":"<base topic>","name":"<task>","cmd_t":"~/set","stat_t":"~/<value>"},
//
// concatenated into one message per task. Sensor kinds are classified but
// not yet announced.
package discovery
