// Package broker bridges the node's task model to a publish/subscribe
// message broker.
//
// Inbound, ParseTopic splits a topic into a raw command ("<prefix>/cmd") or a
// value-set address ("<prefix>/<task>/<value>/set"). The Router resolves the
// address through the task registry, builds the canonical command text and
// dispatches it: event and asyncevent commands are sanitised and queued for
// the rule engine with de-duplication, everything else goes to the command
// executor.
//
// Outbound, the Publisher sends one message per exposed value of a task
// reading, expanding topic placeholders through a Substituter. Templater is
// the default Substituter.
//
// The transport, registry, executor and rule queue are collaborators passed
// in as interfaces; this package performs no I/O of its own.
//
// Topic formats:
//
//	<prefix>/<task>/<value>/set   payload: new value
//	<prefix>/cmd                  payload: command text, e.g. "gpio,14,0"
package broker
