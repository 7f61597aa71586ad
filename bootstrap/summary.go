package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/varconv/component"
	"github.com/kbukum/varconv/logger"
)

// ComponentStatus is one line of the startup summary.
type ComponentStatus struct {
	Name    string
	Type    string
	Details string
	Status  component.HealthStatus
	Message string
}

// Summary describes the started application. It is written to the log so
// stdout stays free for command output.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	components      []ComponentStatus
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Components returns the statuses collected by the last Collect.
func (s *Summary) Components() []ComponentStatus {
	return s.components
}

// Collect merges registry descriptions with live health.
func (s *Summary) Collect(ctx context.Context, registry *component.Registry) []ComponentStatus {
	if registry == nil {
		s.components = nil
		return nil
	}
	health := make(map[string]component.Health)
	for _, h := range registry.HealthAll(ctx) {
		health[h.Name] = h
	}

	descs := registry.Describe()
	out := make([]ComponentStatus, 0, len(descs))
	for _, d := range descs {
		cs := ComponentStatus{Name: d.Name, Type: d.Type, Details: d.Details}
		if h, ok := health[d.Type]; ok {
			cs.Status, cs.Message = h.Status, h.Message
		} else if h, ok := health[d.Name]; ok {
			cs.Status, cs.Message = h.Status, h.Message
		}
		out = append(out, cs)
	}
	s.components = out
	return out
}

// Log writes one debug line per component and an info line for the app.
func (s *Summary) Log(ctx context.Context, registry *component.Registry, log *logger.Logger) {
	healthy := 0
	for _, c := range s.Collect(ctx, registry) {
		if c.Status == component.StatusHealthy {
			healthy++
		}
		fields := logger.Fields("type", c.Type, logger.FieldStatus, string(c.Status), "details", c.Details)
		if c.Message != "" {
			fields["message"] = c.Message
		}
		log.Debug("component "+c.Name, fields)
	}

	log.Info(s.serviceName+" started", logger.Fields(
		"version", s.version,
		"components", len(s.components),
		"healthy", healthy,
		"startup_ms", s.startupDuration.Milliseconds(),
	))
}
