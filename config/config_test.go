package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/varconv/errors"
)

type testPipeline struct {
	Parallelism     int           `mapstructure:"parallelism"`
	QueueCapacity   int           `mapstructure:"queue_capacity"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline      testPipeline `mapstructure:"pipeline"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{}
	cfg.ApplyDefaults()
	if cfg.Name != "varconv" {
		t.Errorf("expected name 'varconv', got %q", cfg.Name)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected 'production', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging defaults applied, got level %q", cfg.Logging.Level)
	}

	dbg := ServiceConfig{Debug: true}
	dbg.ApplyDefaults()
	if dbg.Logging.Level != "debug" {
		t.Errorf("expected debug to raise log level, got %q", dbg.Logging.Level)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	valid := func() ServiceConfig {
		c := ServiceConfig{Name: "varconv", Environment: "production"}
		c.Logging.ApplyDefaults()
		return c
	}
	tests := []struct {
		name    string
		mutate  func(*ServiceConfig)
		wantErr string
	}{
		{"valid", func(*ServiceConfig) {}, ""},
		{"missing name", func(c *ServiceConfig) { c.Name = "" }, "name is required"},
		{"bad environment", func(c *ServiceConfig) { c.Environment = "qa" }, "environment must be one of"},
		{"bad log level", func(c *ServiceConfig) { c.Logging.Level = "loud" }, "level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.IsCode(err, errors.ErrCodeConfiguration) {
				t.Fatalf("expected CONFIGURATION, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	path := writeFile(t, "varconv.yml", `
name: converter
environment: staging
logging:
  level: warn
pipeline:
  parallelism: 4
  shutdown_timeout: 5s
`)
	var cfg testConfig
	if err := LoadConfig(&cfg, WithConfigFile(path), WithEnvFile("/nonexistent/.env")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "converter" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected nested logging level, got %q", cfg.Logging.Level)
	}
	if cfg.Pipeline.Parallelism != 4 {
		t.Errorf("expected parallelism 4, got %d", cfg.Pipeline.Parallelism)
	}
	if cfg.Pipeline.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.Pipeline.ShutdownTimeout)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "varconv.yml", "pipeline:\n  parallelism: 2\n")
	t.Setenv("VARCONV_PIPELINE_PARALLELISM", "8")
	t.Setenv("VARCONV_PIPELINE_QUEUE_CAPACITY", "16")

	var cfg testConfig
	if err := LoadConfig(&cfg, WithConfigFile(path), WithEnvFile("/nonexistent/.env")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Pipeline.Parallelism != 8 {
		t.Errorf("expected env to win, got %d", cfg.Pipeline.Parallelism)
	}
	if cfg.Pipeline.QueueCapacity != 16 {
		t.Errorf("expected queue capacity 16, got %d", cfg.Pipeline.QueueCapacity)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig(&cfg, WithConfigFile("/nonexistent/path.yml"))
	if !errors.IsCode(err, errors.ErrCodeConfiguration) {
		t.Fatalf("expected CONFIGURATION, got %v", err)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := writeFile(t, "varconv.yml", "pipeline: [unterminated\n")
	var cfg testConfig
	err := LoadConfig(&cfg, WithConfigFile(path))
	if !errors.IsCode(err, errors.ErrCodeConfiguration) {
		t.Fatalf("expected CONFIGURATION, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./config/varconv.yml": true,
		"./.env":               true,
	}}
	resolver := &Resolver{FileSystem: fs}

	files := resolver.ResolveFiles(LoaderConfig{})
	if files.ConfigFile != "./config/varconv.yml" {
		t.Errorf("expected ./config/varconv.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected ./.env, got %q", files.EnvFile)
	}

	explicit := resolver.ResolveFiles(LoaderConfig{ConfigFile: "custom.yml"})
	if explicit.ConfigFile != "custom.yml" {
		t.Errorf("explicit path should win, got %q", explicit.ConfigFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("PIPELINE_QUEUE_CAPACITY")
	for _, want := range []string{
		"pipeline_queue_capacity",
		"pipeline.queue.capacity",
		"pipeline.queue_capacity",
	} {
		if !slices.Contains(got, want) {
			t.Errorf("expected variant %q in %v", want, got)
		}
	}
	if single := envKeyVariants("DEBUG"); len(single) != 1 || single[0] != "debug" {
		t.Errorf("unexpected variants %v", single)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/varconv.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/varconv.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("options not applied: %+v", lc)
	}
}
