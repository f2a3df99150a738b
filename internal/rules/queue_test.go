package rules

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_EnqueueUniqueDedup(t *testing.T) {
	q := NewEventQueue(0)

	require.True(t, q.EnqueueUnique("myevent=1,2"))
	assert.Equal(t, 1, q.Len())

	assert.False(t, q.EnqueueUnique("myevent=1,2"), "identical pending event is rejected")
	assert.Equal(t, 1, q.Len())

	assert.True(t, q.EnqueueUnique("myevent=1,3"))
	assert.Equal(t, 2, q.Len())

	s := q.Stats()
	assert.Equal(t, uint64(2), s.Enqueued)
	assert.Equal(t, uint64(1), s.Duplicates)
	assert.Equal(t, 2, s.Pending)
}

func TestEventQueue_DedupOnlyAgainstPending(t *testing.T) {
	q := NewEventQueue(0)

	require.True(t, q.EnqueueUnique("boot"))
	e, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, "boot", e)

	assert.True(t, q.EnqueueUnique("boot"), "consumed events may be queued again")
}

func TestEventQueue_EnqueueAllowsDuplicates(t *testing.T) {
	q := NewEventQueue(0)

	q.Enqueue("tick")
	q.Enqueue("tick")

	assert.Equal(t, []string{"tick", "tick"}, q.Drain())
}

func TestEventQueue_RejectsEmpty(t *testing.T) {
	q := NewEventQueue(0)
	assert.False(t, q.EnqueueUnique(""))
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_FIFO(t *testing.T) {
	q := NewEventQueue(0)
	for i := 0; i < 5; i++ {
		q.EnqueueUnique(fmt.Sprintf("e%d", i))
	}

	first, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, "e0", first)

	assert.Equal(t, []string{"e1", "e2", "e3", "e4"}, q.Drain())
	assert.Equal(t, 0, q.Len())

	_, ok = q.Next()
	assert.False(t, ok)
	assert.Empty(t, q.Drain())
}

func TestEventQueue_Capacity(t *testing.T) {
	q := NewEventQueue(2)

	assert.True(t, q.EnqueueUnique("a"))
	assert.True(t, q.EnqueueUnique("b"))
	assert.False(t, q.EnqueueUnique("c"))
	assert.Equal(t, uint64(1), q.Stats().Dropped)

	q.Next()
	assert.True(t, q.EnqueueUnique("c"))
}

func TestEventQueue_Ready(t *testing.T) {
	q := NewEventQueue(0)

	select {
	case <-q.Ready():
		t.Fatal("ready before any event")
	default:
	}

	q.EnqueueUnique("a")
	q.EnqueueUnique("b")

	select {
	case <-q.Ready():
	default:
		t.Fatal("not ready after enqueue")
	}
	assert.Len(t, q.Drain(), 2)
}

func TestEventQueue_ConcurrentDedup(t *testing.T) {
	q := NewEventQueue(0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				q.EnqueueUnique(fmt.Sprintf("event%d", j))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, q.Len())
	assert.Equal(t, uint64(190), q.Stats().Duplicates)
}
