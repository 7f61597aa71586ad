package pipeline

import (
	"fmt"
	"time"

	"github.com/kbukum/varconv/errors"
)

const (
	DefaultParallelism     = 1
	DefaultShutdownTimeout = 30 * time.Second
)

// Config bounds a Run.
type Config struct {
	// Parallelism is the number of transform workers.
	Parallelism int `mapstructure:"parallelism"`
	// QueueCapacity is the maximum number of batches and payloads held
	// between the reader and the sink. Zero means Parallelism+1.
	QueueCapacity int `mapstructure:"queue_capacity"`
	// PreserveOrder delivers payloads to the sink in sequence order.
	PreserveOrder bool `mapstructure:"preserve_order"`
	// ShutdownTimeout bounds how long a failed or canceled run waits for its
	// goroutines.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultConfig returns a single-worker, order-preserving config.
func DefaultConfig() Config {
	return Config{
		Parallelism:     DefaultParallelism,
		QueueCapacity:   DefaultParallelism + 1,
		PreserveOrder:   true,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// ApplyDefaults fills derived zero values. Parallelism is left alone so that
// a non-positive value is reported by Validate.
func (c *Config) ApplyDefaults() {
	if c.QueueCapacity == 0 && c.Parallelism > 0 {
		c.QueueCapacity = c.Parallelism + 1
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Parallelism < 1 {
		return errors.Configuration("parallelism", fmt.Sprintf("parallelism must be at least 1, got %d", c.Parallelism))
	}
	if c.QueueCapacity < c.Parallelism {
		return errors.Configuration("queue_capacity",
			fmt.Sprintf("queue capacity %d is smaller than parallelism %d", c.QueueCapacity, c.Parallelism))
	}
	if c.ShutdownTimeout < 0 {
		return errors.Configuration("shutdown_timeout", "shutdown timeout must not be negative")
	}
	return nil
}
