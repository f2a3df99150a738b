package discovery

import "github.com/nerrad567/gray-logic-node/internal/task"

// Item is one classified group of consecutive values of a task.
type Item struct {
	Kind   task.ValueKind
	Count  uint8
	Offset uint8
}

// Hook is implemented by device kinds that describe their own values.
//
// DiscoveryHints returns one semantic kind per value slot; zero (ValueNone)
// marks an unused slot. ok=false means the device kind provides no hints.
type Hook interface {
	DiscoveryHints() (hints []task.ValueKind, ok bool)
}

// HintsHook adapts a task's configured hints to a Hook.
// It returns nil when the task carries no hints.
func HintsHook(t *task.Task) Hook {
	if t.Hints == nil {
		return nil
	}
	return hintsHook(t.Hints)
}

type hintsHook []task.ValueKind

func (h hintsHook) DiscoveryHints() ([]task.ValueKind, bool) {
	return h, true
}

// Classify maps a device kind to its discovery items.
//
// In priority order: a hook replaces everything; otherwise the static table
// entry for the kind applies; ignored kinds produce nothing; finally the
// declared value kind covers the whole task.
func Classify(kind task.Kind, declared task.ValueKind, valueCount uint8, hook Hook) []Item {
	var items []Item

	if rules, ok := kindTable[kind]; ok {
		for _, r := range rules {
			if it, ok := r.item(valueCount); ok {
				items = append(items, it)
			}
		}
	}

	if ignoredKinds[kind] {
		declared = task.ValueNone
	}

	if declared != task.ValueNone && len(items) == 0 {
		items = append(items, Item{Kind: declared, Count: valueCount, Offset: 0})
	}

	if hook != nil {
		if hints, ok := hook.DiscoveryHints(); ok {
			items = fromHints(hints)
		}
	}

	return items
}

// fromHints builds one single-value item per slot up to the last non-zero hint.
func fromHints(hints []task.ValueKind) []Item {
	last := len(hints)
	for ; last > 0; last-- {
		if hints[last-1] != task.ValueNone {
			break
		}
	}

	items := make([]Item, 0, last)
	for v := 0; v < last; v++ {
		items = append(items, Item{Kind: hints[v], Count: 1, Offset: uint8(v)})
	}
	return items
}
