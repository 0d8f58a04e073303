// Package reorder turns a finished drag gesture on the score grid into a
// swap of the two score ids.
package reorder

import (
	"context"
	"fmt"

	"github.com/okian/rangeboard/pkg/logger"
	"github.com/okian/rangeboard/pkg/metrics"
)

// Intent is the pair of rows involved in a drag.
type Intent struct {
	Moved  int `json:"moved"`
	Target int `json:"target"`
}

// DragEnd is a completed drag gesture together with the viewer's ordering
// toggle at the time it ended.
type DragEnd struct {
	Intent
	Ordering bool `json:"ordering"`
}

// Swapper exchanges the ids of two scores on the remote service.
type Swapper interface {
	SwapID(ctx context.Context, id1, id2 int) error
}

// Dispatcher issues swap mutations for drag gestures.
type Dispatcher struct {
	swapper Swapper
	log     logger.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates a Dispatcher backed by s.
func New(s Swapper, opts ...Option) *Dispatcher {
	d := &Dispatcher{swapper: s, log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DragEnd dispatches the swap for ev. It reports whether a mutation was
// issued. Nothing is issued while ordering is off or when either row has no
// id. The grid is not reordered locally; the change arrives through the
// next live-update refetch.
func (d *Dispatcher) DragEnd(ctx context.Context, ev DragEnd) (bool, error) {
	if !ev.Ordering {
		metrics.RecordSwapSkipped("ordering_disabled")
		return false, ErrOrderingDisabled
	}
	if ev.Moved == 0 || ev.Target == 0 {
		metrics.RecordSwapSkipped("missing_identity")
		d.log.Debug(ctx, "drag ended without two rows",
			logger.Int("moved", ev.Moved), logger.Int("target", ev.Target))
		return false, nil
	}

	if err := d.swapper.SwapID(ctx, ev.Moved, ev.Target); err != nil {
		metrics.RecordMutation("swapId", "error")
		d.log.Error(ctx, "swap failed",
			logger.Int("moved", ev.Moved), logger.Int("target", ev.Target), logger.Error(err))
		return true, fmt.Errorf("%w: %d <-> %d: %w", ErrSwapFailed, ev.Moved, ev.Target, err)
	}
	metrics.RecordMutation("swapId", "ok")
	return true, nil
}
