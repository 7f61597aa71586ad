package app

import (
	"time"

	"github.com/kbukum/varconv/config"
	"github.com/kbukum/varconv/container"
	"github.com/kbukum/varconv/index"
	"github.com/kbukum/varconv/observability"
	"github.com/kbukum/varconv/pipeline"
	"github.com/kbukum/varconv/redis"
	"github.com/kbukum/varconv/storage"
	"github.com/kbukum/varconv/validation"
	"github.com/kbukum/varconv/variant"
)

// Config is the full varconv configuration. It is loaded from varconv.yml,
// .env and VARCONV_* variables, then overridden by command-line flags.
//
//	pipeline:
//	  threads: 4
//	  batch_size: 1048576
//	compression: snappy
//	storage:
//	  enabled: true
//	  provider: s3
//	  bucket: variants
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Pipeline    PipelineConfig       `yaml:"pipeline" mapstructure:"pipeline"`
	Compression string               `yaml:"compression" mapstructure:"compression"`
	Index       IndexConfig          `yaml:"index" mapstructure:"index"`
	Storage     storage.Config       `yaml:"storage" mapstructure:"storage"`
	Telemetry   observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// PipelineConfig bounds a conversion run.
type PipelineConfig struct {
	Threads         int           `yaml:"threads" mapstructure:"threads" validate:"gte=0"`
	BatchSize       int           `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=1"`
	QueueCapacity   int           `yaml:"queue_capacity" mapstructure:"queue_capacity" validate:"gte=0"`
	PreserveOrder   bool          `yaml:"preserve_order" mapstructure:"preserve_order"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gte=0"`
	MaxLineBytes    int           `yaml:"max_line_bytes" mapstructure:"max_line_bytes" validate:"gte=1"`
}

// Parallelism is max(threads, 1).
func (p PipelineConfig) Parallelism() int {
	return max(p.Threads, 1)
}

// Run returns the bounded pipeline settings.
func (p PipelineConfig) Run() pipeline.Config {
	cfg := pipeline.Config{
		Parallelism:     p.Parallelism(),
		QueueCapacity:   p.QueueCapacity,
		PreserveOrder:   p.PreserveOrder,
		ShutdownTimeout: p.ShutdownTimeout,
	}
	cfg.ApplyDefaults()
	return cfg
}

// IndexConfig configures the region index store.
type IndexConfig struct {
	Redis     redis.Config `yaml:"redis" mapstructure:"redis"`
	Database  string       `yaml:"database" mapstructure:"database"`
	BatchSize int          `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=0"`
	Workers   int          `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
}

// DefaultConfig returns the configuration used before files, environment
// and flags are applied. Loading decodes on top of it, so keys absent from
// every source keep these values.
func DefaultConfig() Config {
	return Config{
		Pipeline: PipelineConfig{
			Threads:         1,
			BatchSize:       variant.DefaultBatchSizeBytes,
			PreserveOrder:   true,
			ShutdownTimeout: pipeline.DefaultShutdownTimeout,
			MaxLineBytes:    variant.DefaultMaxLineBytes,
		},
		Compression: container.CodecNull,
		Index: IndexConfig{
			BatchSize: index.DefaultBatchSize,
			Workers:   index.DefaultWorkers,
		},
		Storage: storage.Config{Provider: storage.ProviderLocal},
	}
}

// ApplyDefaults fills zero values in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Pipeline.BatchSize == 0 {
		c.Pipeline.BatchSize = variant.DefaultBatchSizeBytes
	}
	if c.Pipeline.MaxLineBytes == 0 {
		c.Pipeline.MaxLineBytes = variant.DefaultMaxLineBytes
	}
	if c.Pipeline.ShutdownTimeout == 0 {
		c.Pipeline.ShutdownTimeout = pipeline.DefaultShutdownTimeout
	}
	c.Index.Redis.ApplyDefaults()
	c.Storage.ApplyDefaults()

	c.Telemetry.ServiceName = c.Name
	c.Telemetry.ServiceVersion = c.Version
	c.Telemetry.Environment = c.Environment
	c.Telemetry.ApplyDefaults()
}

// Validate checks struct tags and every section, reporting all problems.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	v := validation.New()
	v.Merge("", validation.Validate(c))
	if _, err := container.CanonicalCodec(c.Compression); err != nil {
		v.Merge("compression", err)
	}
	if c.Pipeline.QueueCapacity > 0 && c.Pipeline.QueueCapacity < c.Pipeline.Parallelism() {
		v.Custom(false, "pipeline.queue_capacity", "queue_capacity must be at least the number of threads")
	}
	v.Merge("index.redis", c.Index.Redis.Validate())
	v.Merge("storage", c.Storage.Validate())
	v.Merge("telemetry", c.Telemetry.Validate())
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
