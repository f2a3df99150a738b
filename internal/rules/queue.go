// Package rules holds the pending rule-event queue.
//
// Events arrive from the broker bridge as plain text ("name" or
// "name=values"). Several overlapping subscriptions can deliver the same
// event more than once in a burst, so EnqueueUnique refuses an event that is
// already pending. The rule engine consumes events with Drain or Next.
package rules

import (
	"sync"
)

// Logger defines the logging interface used by the queue.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Stats counts queue activity since creation.
type Stats struct {
	Enqueued   uint64
	Duplicates uint64
	Dropped    uint64
	Pending    int
}

// EventQueue is a FIFO of pending rule events with de-duplication.
//
// The zero value is not usable; create with NewEventQueue.
type EventQueue struct {
	mu       sync.Mutex
	events   []string
	capacity int
	stats    Stats
	notify   chan struct{}
	logger   Logger
}

// NewEventQueue creates a queue. capacity bounds the number of pending events;
// 0 means unbounded.
func NewEventQueue(capacity int) *EventQueue {
	if capacity < 0 {
		capacity = 0
	}
	return &EventQueue{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the queue.
func (q *EventQueue) SetLogger(logger Logger) {
	q.logger = logger
}

// Enqueue appends an event unconditionally (subject to capacity).
func (q *EventQueue) Enqueue(event string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushLocked(event)
}

// EnqueueUnique appends an event unless an identical one is pending.
// It returns false for duplicates, empty events and when the queue is full.
func (q *EventQueue) EnqueueUnique(event string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.events {
		if e == event {
			q.stats.Duplicates++
			return false
		}
	}
	return q.pushLocked(event)
}

func (q *EventQueue) pushLocked(event string) bool {
	if event == "" {
		return false
	}
	if q.capacity > 0 && len(q.events) >= q.capacity {
		q.stats.Dropped++
		q.logger.Warn("rule event queue full, event dropped", "event", event, "capacity", q.capacity)
		return false
	}

	q.events = append(q.events, event)
	q.stats.Enqueued++

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Next removes and returns the oldest pending event.
func (q *EventQueue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return "", false
	}
	e := q.events[0]
	q.events[0] = ""
	q.events = q.events[1:]
	return e, true
}

// Drain removes and returns all pending events, oldest first.
func (q *EventQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.events
	q.events = nil
	return out
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Stats returns a snapshot of the queue counters.
func (q *EventQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.stats
	s.Pending = len(q.events)
	return s
}

// Ready returns a channel that receives a value after an event is queued.
// A single receive may cover several events; consumers should drain.
func (q *EventQueue) Ready() <-chan struct{} {
	return q.notify
}
