package storage

import (
	"time"

	"github.com/kbukum/varconv/validation"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider       = ProviderLocal
	DefaultBasePath       = "./published"
	DefaultRegion         = "us-east-1"
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 200 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
)

// Config holds publishing storage configuration.
type Config struct {
	// Enabled turns publishing on.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Provider selects the storage backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider"`

	// Prefix is prepended to every published key.
	Prefix string `mapstructure:"prefix" json:"prefix"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Region is the AWS region for S3.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the AWS access key ID.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"-"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`

	// Retry bounds upload retries.
	Retry RetryConfig `mapstructure:"retry" json:"retry"`
}

// RetryConfig is the subset of resilience.RetryConfig exposed to configuration.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" json:"max_backoff"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = DefaultInitialBackoff
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = DefaultMaxBackoff
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New().
		OneOf("storage.provider", c.Provider, []string{ProviderLocal, ProviderS3}).
		Min("storage.retry.max_attempts", c.Retry.MaxAttempts, 1)
	switch c.Provider {
	case ProviderLocal:
		v.Required("storage.base_path", c.BasePath)
	case ProviderS3:
		v.Required("storage.bucket", c.Bucket).
			Required("storage.region", c.Region)
	}
	v.Custom(c.AccessKey == "" || c.SecretKey != "", "storage.secret_key", "is required with access_key")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
