package api

import (
	"github.com/coder/websocket"
	"github.com/okian/rangeboard/pkg/logger"
)

const defaultLiveOutbox = 16

type options struct {
	log            logger.Logger
	outbox         int
	originPatterns []string
}

// Option configures the API server.
type Option func(*options)

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithLiveOutbox bounds the pending messages of each live connection.
func WithLiveOutbox(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.outbox = n
		}
	}
}

// WithOriginPatterns allows cross-origin live connections from the given
// host patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(o *options) {
		o.originPatterns = append(o.originPatterns, patterns...)
	}
}

func (o options) acceptOptions() *websocket.AcceptOptions {
	return &websocket.AcceptOptions{OriginPatterns: o.originPatterns}
}
