package filter

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/okian/rangeboard/pkg/logger"
	"github.com/okian/rangeboard/pkg/metrics"
)

// Manager owns the selection for one page view together with the location
// it is mirrored to. Set updates both at once; unrelated query parameters
// are kept as they were.
type Manager struct {
	mu    sync.RWMutex
	path  string
	query url.Values
	sel   Selection
	log   logger.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used to report malformed parameters.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager seeds a Manager from the page URL. Malformed dimensions are
// logged, counted and treated as unfiltered.
func NewManager(ctx context.Context, u *url.URL, opts ...Option) *Manager {
	m := &Manager{log: logger.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	if u == nil {
		u = &url.URL{}
	}
	m.path = u.Path
	m.query = u.Query()

	sel, bad := decode(m.query)
	for _, de := range bad {
		metrics.RecordFilterDecodeError(string(de.Dimension))
		m.log.Warn(ctx, "ignoring malformed filter parameter",
			logger.String("dimension", string(de.Dimension)),
			logger.String("value", de.Raw),
			logger.Error(de.Err))
	}
	m.sel = sel
	return m
}

// Set replaces the ids for d and rewrites the query parameter. An empty
// ids slice removes the parameter.
func (m *Manager) Set(d Dimension, ids []int) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDimension, d)
	}
	ids = Normalize(ids)

	m.mu.Lock()
	defer m.mu.Unlock()
	if ids == nil {
		delete(m.sel, d)
		m.query.Del(string(d))
		return nil
	}
	m.sel[d] = ids
	m.query.Set(string(d), EncodeValue(ids))
	return nil
}

// Selection returns a copy of the current selection.
func (m *Manager) Selection() Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sel.Clone()
}

// Location returns path plus the encoded query, without "?" when the query
// is empty.
func (m *Manager) Location() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := m.query.Encode()
	if q == "" {
		return m.path
	}
	return m.path + "?" + q
}
