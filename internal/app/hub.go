package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/pkg/logger"
	"github.com/okian/rangeboard/pkg/metrics"
)

const binderCloseTimeout = 5 * time.Second

// ScorelistReader reads one scorelist from the remote service.
type ScorelistReader interface {
	Scorelist(ctx context.Context, id int) (model.Scorelist, error)
}

type hubEntry struct {
	binder *Binder[model.Scorelist]
	refs   int
}

// Hub keeps one binder per watched scorelist. Binders are shared by every
// viewer of the same scorelist and closed when the last one leaves.
type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc
	reader ScorelistReader
	opts   []BinderOption
	log    logger.Logger

	mu      sync.Mutex
	entries map[int]*hubEntry
	closed  bool
}

// NewHub creates a hub whose binders live at most as long as parent.
func NewHub(parent context.Context, reader ScorelistReader, log logger.Logger, opts ...BinderOption) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		ctx:     ctx,
		cancel:  cancel,
		reader:  reader,
		opts:    opts,
		log:     log,
		entries: make(map[int]*hubEntry),
	}
}

// Acquire returns the binder for id, creating and loading it on first use.
// The release func must be called exactly once when the viewer leaves.
func (h *Hub) Acquire(id int) (*Binder[model.Scorelist], func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, ErrNotStarted
	}

	e, ok := h.entries[id]
	if !ok {
		b := NewBinder("scorelist", func(ctx context.Context) (model.Scorelist, error) {
			return h.reader.Scorelist(ctx, id)
		}, append([]BinderOption{WithBinderLogger(h.log.Named("binder"))}, h.opts...)...)
		b.Start(h.ctx)
		go func() {
			if err := b.Refresh(h.ctx); err != nil {
				h.log.Warn(h.ctx, "initial scorelist load failed", logger.Int("scorelist_id", id), logger.Error(err))
			}
		}()
		e = &hubEntry{binder: b}
		h.entries[id] = e
		metrics.UpdateActiveBinders(len(h.entries))
		h.log.Debug(h.ctx, "binder created", logger.Int("scorelist_id", id))
	}
	e.refs++

	var once sync.Once
	return e.binder, func() { once.Do(func() { h.release(id, e) }) }, nil
}

func (h *Hub) release(id int, e *hubEntry) {
	h.mu.Lock()
	e.refs--
	if e.refs > 0 || h.entries[id] != e {
		h.mu.Unlock()
		return
	}
	delete(h.entries, id)
	metrics.UpdateActiveBinders(len(h.entries))
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), binderCloseTimeout)
	defer cancel()
	e.binder.Close(ctx)
	h.log.Debug(ctx, "binder closed", logger.Int("scorelist_id", id))
}

// Peek returns the current snapshot of id if a binder exists.
func (h *Hub) Peek(id int) (Snapshot[model.Scorelist], bool) {
	h.mu.Lock()
	e, ok := h.entries[id]
	h.mu.Unlock()
	if !ok {
		return Snapshot[model.Scorelist]{}, false
	}
	return e.binder.Snapshot(), true
}

// Broadcast forwards ev to every binder. It reports how many accepted it.
func (h *Hub) Broadcast(ctx context.Context, ev model.ChangeEvent) int {
	h.mu.Lock()
	binders := make([]*Binder[model.Scorelist], 0, len(h.entries))
	for _, e := range h.entries {
		binders = append(binders, e.binder)
	}
	h.mu.Unlock()

	accepted := 0
	for _, b := range binders {
		if b.Notify(ctx, ev) {
			accepted++
		}
	}
	return accepted
}

// Len returns the number of active binders.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Close closes every binder and rejects further Acquire calls.
func (h *Hub) Close(ctx context.Context) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	entries := h.entries
	h.entries = make(map[int]*hubEntry)
	h.mu.Unlock()

	h.cancel()
	for _, e := range entries {
		e.binder.Close(ctx)
	}
	metrics.UpdateActiveBinders(0)
}
