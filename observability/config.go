package observability

import (
	"time"

	"github.com/kbukum/varconv/validation"
)

// Config is the telemetry section of the application config.
type Config struct {
	// Enabled turns OTLP export on. When off the global no-op providers stay
	// in place and instrumentation costs nothing.
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	// Insecure disables TLS (for development).
	Insecure bool `mapstructure:"insecure"`
	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval"`

	ServiceName    string `mapstructure:"-"`
	ServiceVersion string `mapstructure:"-"`
	Environment    string `mapstructure:"-"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
	if c.ServiceName == "" {
		c.ServiceName = "varconv"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// Validate checks the configuration when telemetry is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New().
		Required("telemetry.endpoint", c.Endpoint).
		Custom(c.SampleRate >= 0 && c.SampleRate <= 1, "telemetry.sample_rate", "must be between 0 and 1").
		Custom(c.Interval > 0, "telemetry.interval", "must be positive")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
