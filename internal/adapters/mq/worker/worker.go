// Package worker consumes live-update notifications and turns each one into
// a full re-read of the bound data.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/rangeboard/internal/adapters/mq/queue"
	"github.com/okian/rangeboard/pkg/logger"
	"github.com/okian/rangeboard/pkg/metrics"
)

// Event abstracts what workers read off the queue.
type Event = queue.Event

// Refresher re-reads bound data from the remote service.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes notifications until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// RefetchWorker calls Refresh once per notification. It is the only
// consumer of its queue, so refreshes triggered by notifications never
// overlap each other.
type RefetchWorker struct {
	queue  Queue
	target Refresher
	name   string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewRefetchWorker creates a worker that refreshes target for every event.
func NewRefetchWorker(q Queue, target Refresher, opts ...Option) *RefetchWorker {
	w := &RefetchWorker{
		queue:    q,
		target:   target,
		name:     "refetch",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *RefetchWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.process(ctx, event)
		}
	}
}

// Done is closed when Run has returned.
func (w *RefetchWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown signals the loop to stop and waits for it.
func (w *RefetchWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *RefetchWorker) process(ctx context.Context, event Event) {
	if err := w.target.Refresh(ctx); err != nil {
		metrics.RecordRefetch(w.name, "error")
		w.logger.Warn(ctx, "refetch failed",
			logger.String("topic", event.Topic),
			logger.Error(err))
		return
	}
	metrics.RecordRefetch(w.name, "ok")
	w.logger.Debug(ctx, "refetched", logger.String("topic", event.Topic))
}
