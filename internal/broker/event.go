package broker

import "strings"

// Rule event command keywords.
const (
	CommandEvent      = "event"
	CommandAsyncEvent = "asyncevent"
)

// IsEventCommand reports whether cmd queues a rule event.
func IsEventCommand(cmd string) bool {
	name := commandName(cmd)
	return name == CommandEvent || name == CommandAsyncEvent
}

// SanitizeEvent turns an event command into rule event text.
//
//	event,myevent,1,2    -> myevent=1,2
//	event,myevent=1,2    -> myevent=1,2
//	event,myevent=,1,2   -> myevent=1,2
//	event,myevent        -> myevent
func SanitizeEvent(cmd string) string {
	args := commandArgs(cmd)

	name, values := splitArg(args, false)
	if eq := strings.IndexByte(name, '='); eq != -1 {
		name = strings.TrimSpace(args[:eq])
		values = strings.TrimSpace(args[eq+1:])
	}

	values = strings.TrimPrefix(values, ",")

	if values == "" {
		return name
	}
	return name + "=" + values
}
