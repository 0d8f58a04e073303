package service

import (
	"context"
	"sync"

	"github.com/okian/rangeboard/internal/adapters/mq/queue"
	"github.com/okian/rangeboard/internal/adapters/mq/worker"
	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/pkg/logger"
	"github.com/okian/rangeboard/pkg/metrics"
)

// Status is the state of a bound query.
type Status string

// Snapshot states. Exactly one applies at any time.
const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusLoaded  Status = "loaded"
)

// Snapshot is an immutable view of a binder. Data is the zero value unless
// Status is StatusLoaded; Err is set only for StatusError.
type Snapshot[T any] struct {
	Status  Status
	Data    T
	Err     error
	Version uint64
}

// FetchFunc reads the bound data from the remote service.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type binderConfig struct {
	queueSize  int
	outboxSize int
	log        logger.Logger
}

// BinderOption configures a Binder.
type BinderOption func(*binderConfig)

// WithBinderQueueSize bounds the notification queue.
func WithBinderQueueSize(n int) BinderOption {
	return func(c *binderConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithBinderOutboxSize bounds each watcher channel.
func WithBinderOutboxSize(n int) BinderOption {
	return func(c *binderConfig) {
		if n > 0 {
			c.outboxSize = n
		}
	}
}

// WithBinderLogger sets the binder logger.
func WithBinderLogger(l logger.Logger) BinderOption {
	return func(c *binderConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Binder keeps the latest result of one remote query and re-runs it for
// every change notification. Requests are numbered; a response is applied
// only if no newer request was issued meanwhile, so the last issued request
// wins regardless of completion order.
type Binder[T any] struct {
	name  string
	fetch FetchFunc[T]
	cfg   binderConfig

	mu       sync.Mutex
	issued   uint64
	snap     Snapshot[T]
	watchers map[uint64]chan Snapshot[T]
	nextID   uint64
	closed   bool
	started  bool
	cancel   context.CancelFunc

	queue  *queue.InMemoryQueue
	worker *worker.RefetchWorker
}

// NewBinder creates a binder in the Loading state. Call Start to begin
// consuming notifications.
func NewBinder[T any](name string, fetch FetchFunc[T], opts ...BinderOption) *Binder[T] {
	cfg := binderConfig{queueSize: 64, outboxSize: 16, log: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	b := &Binder[T]{
		name:     name,
		fetch:    fetch,
		cfg:      cfg,
		snap:     Snapshot[T]{Status: StatusLoading},
		watchers: make(map[uint64]chan Snapshot[T]),
	}
	b.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.queueSize))
	b.worker = worker.NewRefetchWorker(b.queue, b,
		worker.WithName(name),
		worker.WithLogger(cfg.log))
	return b
}

// Start runs the refetch worker until ctx ends or Close is called. Close
// cancels the worker's context, which also aborts an in-flight fetch.
func (b *Binder[T]) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return
	}
	b.started = true
	ctx, b.cancel = context.WithCancel(ctx)
	go b.worker.Run(ctx)
}

// Notify queues a change notification. It never blocks.
func (b *Binder[T]) Notify(ctx context.Context, ev model.ChangeEvent) bool {
	return b.queue.Enqueue(ctx, ev)
}

// Refresh issues a new read. Its result replaces the snapshot unless a newer
// read was issued before it completed, in which case it is discarded.
// The returned error is the fetch error of an applied read.
func (b *Binder[T]) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBinderClosed
	}
	b.issued++
	seq := b.issued
	b.mu.Unlock()

	data, err := b.fetch(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBinderClosed
	}
	if seq != b.issued {
		metrics.RecordStaleResponseDiscarded(b.name)
		b.cfg.log.Debug(ctx, "discarded stale response",
			logger.Uint64("seq", seq), logger.Uint64("latest", b.issued))
		return nil
	}

	next := Snapshot[T]{Version: b.snap.Version + 1}
	if err != nil {
		next.Status, next.Err = StatusError, err
	} else {
		next.Status, next.Data = StatusLoaded, data
	}
	b.snap = next
	b.broadcast(next)
	return err
}

// Snapshot returns the current snapshot.
func (b *Binder[T]) Snapshot() Snapshot[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap
}

// Watch registers a watcher. The current snapshot is delivered at once,
// followed by every change. A watcher that falls behind is dropped and its
// channel closed. The returned func unregisters the watcher.
func (b *Binder[T]) Watch() (<-chan Snapshot[T], func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Snapshot[T], b.cfg.outboxSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	ch <- b.snap
	metrics.AddLiveWatchers(1)

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.drop(id)
	}
}

// Watchers returns the number of registered watchers.
func (b *Binder[T]) Watchers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watchers)
}

// Close stops the worker and closes every watcher channel.
func (b *Binder[T]) Close(ctx context.Context) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	cancel := b.cancel
	for id := range b.watchers {
		b.drop(id)
	}
	b.mu.Unlock()

	_ = b.queue.Close()
	if cancel != nil {
		cancel()
		_ = b.worker.Shutdown(ctx)
	}
}

// broadcast must be called with mu held.
func (b *Binder[T]) broadcast(snap Snapshot[T]) {
	for id, ch := range b.watchers {
		select {
		case ch <- snap:
		default:
			b.cfg.log.Warn(context.Background(), "dropping slow watcher", logger.Uint64("watcher", id))
			b.drop(id)
		}
	}
}

// drop must be called with mu held.
func (b *Binder[T]) drop(id uint64) {
	ch, ok := b.watchers[id]
	if !ok {
		return
	}
	delete(b.watchers, id)
	close(ch)
	metrics.AddLiveWatchers(-1)
}
