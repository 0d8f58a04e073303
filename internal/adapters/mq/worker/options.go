package worker

import (
	"github.com/okian/rangeboard/pkg/logger"
)

// Option applies a configuration option to the RefetchWorker.
type Option func(*RefetchWorker)

// WithName sets the worker name used in logs and metric labels.
func WithName(name string) Option {
	return func(w *RefetchWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *RefetchWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}
