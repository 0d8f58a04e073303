package service

import (
	"context"
	"sync"

	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/projector"
	"github.com/okian/rangeboard/internal/domain/reorder"
)

// LiveUpdate is what a live viewer is shown for one snapshot.
type LiveUpdate struct {
	Status Status
	View   *projector.ScorelistView
	Err    error
}

// LiveSession is one viewer of a scorelist. It owns the viewer's round and
// ordering selection and shares the scorelist binder with other viewers.
type LiveSession struct {
	svc     *Service
	id      int
	binder  *Binder[model.Scorelist]
	release func()

	mu       sync.Mutex
	round    int
	ordering bool
	last     Snapshot[model.Scorelist]
}

// ID returns the watched scorelist id.
func (ls *LiveSession) ID() int { return ls.id }

// Updates registers for snapshots. The first one is the current state.
func (ls *LiveSession) Updates() (<-chan Snapshot[model.Scorelist], func()) {
	return ls.binder.Watch()
}

// Apply records snap as the latest snapshot and renders it.
func (ls *LiveSession) Apply(snap Snapshot[model.Scorelist]) LiveUpdate {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.last = snap
	return ls.render()
}

// SelectRound switches the visible round. 0 is the overall tab. Negative
// rounds are ignored.
func (ls *LiveSession) SelectRound(round int) LiveUpdate {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if round >= 0 {
		ls.round = round
	}
	return ls.render()
}

// ToggleOrdering flips drag-to-reorder mode.
func (ls *LiveSession) ToggleOrdering() LiveUpdate {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.ordering = !ls.ordering
	return ls.render()
}

// DragEnd dispatches a swap using the session's ordering mode.
func (ls *LiveSession) DragEnd(ctx context.Context, in reorder.Intent) (bool, error) {
	ls.mu.Lock()
	ordering := ls.ordering
	ls.mu.Unlock()
	return ls.svc.Swap(ctx, reorder.DragEnd{Intent: in, Ordering: ordering})
}

// AddRound appends a round to the scorelist.
func (ls *LiveSession) AddRound(ctx context.Context) (int, error) {
	return ls.svc.AddRound(ctx, ls.id)
}

// Close leaves the scorelist.
func (ls *LiveSession) Close() {
	ls.release()
}

// render must be called with mu held.
func (ls *LiveSession) render() LiveUpdate {
	switch ls.last.Status {
	case StatusLoaded:
		v := projector.View(ls.last.Data, ls.round, ls.ordering)
		return LiveUpdate{Status: StatusLoaded, View: &v}
	case StatusError:
		return LiveUpdate{Status: StatusError, Err: ls.last.Err}
	default:
		return LiveUpdate{Status: StatusLoading}
	}
}
