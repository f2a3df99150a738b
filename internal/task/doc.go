// Package task holds the node's task model and the in-memory task registry.
//
// A task is a configured instance of a device kind producing or accepting up
// to four named values. The registry is built once from configuration and
// answers the name and index lookups used by the broker bridge (topic
// resolution, value names, formats) and by discovery (device kind, declared
// value kind, per-value hints). It also stores the current value of every
// task so remote TaskValueSet commands have somewhere to land.
//
// All Registry methods are safe for concurrent use.
package task
