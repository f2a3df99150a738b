package rules

import (
	"context"
	"sync"
)

// Handler consumes rule events.
type Handler interface {
	HandleEvent(ctx context.Context, event string)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event string)

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event string) { f(ctx, event) }

// Worker drains an EventQueue into a Handler on its own goroutine.
type Worker struct {
	queue   *EventQueue
	handler Handler
	logger  Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWorker creates a worker. Call Start to run it.
func NewWorker(queue *EventQueue, handler Handler) *Worker {
	return &Worker{
		queue:   queue,
		handler: handler,
		logger:  noopLogger{},
		done:    make(chan struct{}),
	}
}

// SetLogger sets the logger for the worker.
func (w *Worker) SetLogger(logger Logger) {
	w.logger = logger
}

// Start begins consuming events until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// Stop halts the worker. Safe to call multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.queue.Ready():
			for _, event := range w.queue.Drain() {
				w.logger.Debug("rule event", "event", event)
				w.handler.HandleEvent(ctx, event)
			}
		}
	}
}
