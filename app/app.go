package app

import (
	"github.com/google/uuid"

	"github.com/kbukum/varconv/bootstrap"
	"github.com/kbukum/varconv/observability"
	"github.com/kbukum/varconv/redis"

	// Storage providers register themselves with storage.New.
	_ "github.com/kbukum/varconv/storage/local"
	_ "github.com/kbukum/varconv/storage/s3"
)

// Command names, also used as the metrics "command" attribute.
const (
	CommandConvert = "convert"
	CommandIndex   = "index"
	CommandQuery   = "query"
)

// newApp builds the bootstrap application shared by every command and
// registers the telemetry component. Telemetry is a no-op when disabled.
func newApp(cfg *Config, opts ...bootstrap.Option) (*bootstrap.App[*Config], error) {
	a, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.RegisterComponent(observability.NewComponent(cfg.Telemetry, a.Logger)); err != nil {
		return nil, err
	}
	return a, nil
}

// registerIndexStore registers the redis component backing the region index.
func registerIndexStore(a *bootstrap.App[*Config]) (*redis.Component, error) {
	rc := a.Cfg.Index.Redis
	rc.Enabled = true
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	c := redis.NewComponent(rc, a.Logger)
	if err := a.RegisterComponent(c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewRunID returns a fresh identifier for one command run.
func NewRunID() string {
	return uuid.NewString()
}
