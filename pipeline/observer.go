package pipeline

import (
	"time"

	"github.com/kbukum/varconv/logger"
)

// Observer receives run events. Implementations must be safe for concurrent
// use; the reader, every worker and the writer report from their own
// goroutines.
type Observer interface {
	BatchRead(seq int64)
	BatchTransformed(seq int64, took time.Duration, err error)
	BatchWritten(seq int64)
	InFlight(n int)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) BatchRead(int64)                             {}
func (NopObserver) BatchTransformed(int64, time.Duration, error) {}
func (NopObserver) BatchWritten(int64)                          {}
func (NopObserver) InFlight(int)                                {}

// RunOption configures a Run.
type RunOption func(*runOptions)

type runOptions struct {
	logger   *logger.Logger
	observer Observer
}

// WithLogger sets the logger used for run lifecycle events.
func WithLogger(l *logger.Logger) RunOption {
	return func(o *runOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver attaches an Observer to the run.
func WithObserver(obs Observer) RunOption {
	return func(o *runOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func resolveRunOptions(opts []RunOption) runOptions {
	o := runOptions{
		logger:   logger.Nop(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
