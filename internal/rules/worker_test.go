package rules

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorker_DeliversEventsInOrder(t *testing.T) {
	q := NewEventQueue(0)

	var mu sync.Mutex
	var got []string
	received := make(chan struct{}, 8)

	w := NewWorker(q, HandlerFunc(func(_ context.Context, event string) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
		received <- struct{}{}
	}))
	w.Start(context.Background())
	defer w.Stop()

	q.EnqueueUnique("a")
	q.EnqueueUnique("b")

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 0, q.Len())
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	w := NewWorker(NewEventQueue(0), HandlerFunc(func(context.Context, string) {}))
	w.Start(context.Background())

	w.Stop()
	w.Stop()
}

func TestWorker_ContextCancel(t *testing.T) {
	w := NewWorker(NewEventQueue(0), HandlerFunc(func(context.Context, string) {}))

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit on cancel")
	}
}
