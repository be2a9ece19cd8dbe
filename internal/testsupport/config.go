package testsupport

import (
	"path/filepath"
	"testing"

	"cleanerguard/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The first definition directory is <base>/cleaners; it is not created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DefinitionDirs = []string{filepath.Join(base, "cleaners")}
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = ""
	cfgVal.Store.Path = filepath.Join(base, "state", "trust.json")
	cfgVal.Scan.Confirm = "prompt"
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend switches the trust store backend and points it at a matching file.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = backend
		name := "trust.json"
		if backend == "sqlite" {
			name = "trust.db"
		}
		b.cfg.Store.Path = filepath.Join(b.baseDir, "state", name)
	}
}

// WithDefinitionDirs replaces the definition directories with dirs relative to the base.
func WithDefinitionDirs(names ...string) ConfigOption {
	return func(b *configBuilder) {
		dirs := make([]string, 0, len(names))
		for _, name := range names {
			dirs = append(dirs, filepath.Join(b.baseDir, name))
		}
		b.cfg.Paths.DefinitionDirs = dirs
	}
}

// WithLogDir enables file logging under the base directory.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LogDir = filepath.Join(b.baseDir, "logs")
	}
}

// DefinitionDir returns the first definition directory of cfg.
func DefinitionDir(cfg *config.Config) string {
	if len(cfg.Paths.DefinitionDirs) == 0 {
		return ""
	}
	return cfg.Paths.DefinitionDirs[0]
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
