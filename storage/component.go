package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/varconv/component"
	"github.com/kbukum/varconv/logger"
)

// Component wraps Storage and implements component.Component for lifecycle management.
type Component struct {
	storage Storage
	cfg     Config
	log     *logger.Logger
}

// NewComponent creates a storage component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{
		cfg: cfg,
		log: log.WithComponent("storage"),
	}
}

// Storage returns the underlying Storage, or nil if not started.
func (c *Component) Storage() Storage {
	return c.storage
}

// Config returns the resolved configuration.
func (c *Component) Config() Config {
	return c.cfg
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start initializes the storage backend.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Debug("storage component is disabled")
		return nil
	}

	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.storage = s
	c.log.Info("storage ready", logger.Fields("provider", c.cfg.Provider, "prefix", c.cfg.Prefix))
	return nil
}

// Stop releases the storage backend.
func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	return nil
}

// Health returns the current health status of the storage component.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "disabled"}
	}
	if c.storage == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if _, err := c.storage.URL(ctx, c.cfg.Prefix); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("health check failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s", c.cfg.Provider)
	switch c.cfg.Provider {
	case ProviderS3:
		details += fmt.Sprintf(" bucket=%s", c.cfg.Bucket)
	case ProviderLocal:
		details += fmt.Sprintf(" path=%s", c.cfg.BasePath)
	}
	if c.cfg.Prefix != "" {
		details += fmt.Sprintf(" prefix=%s", c.cfg.Prefix)
	}
	if !c.cfg.Enabled {
		details = "disabled"
	}
	return component.Description{
		Name:    "Storage",
		Type:    "storage",
		Details: details,
	}
}
