package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/logger"
)

var validEnvironments = []string{"development", "staging", "production"}

// ServiceConfig contains the fields every varconv command shares.
// Command configs embed it:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Pipeline pipeline.Config `mapstructure:"pipeline"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig returns the base ServiceConfig. Promoted through embedding.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "varconv"
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return errors.Configuration("name", "name is required")
	}
	if !slices.Contains(validEnvironments, c.Environment) {
		return errors.Configuration("environment",
			fmt.Sprintf("environment must be one of %v (got: %s)", validEnvironments, c.Environment))
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.Configuration("logging", err.Error()).WithCause(err)
	}
	return nil
}
