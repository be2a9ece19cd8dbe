package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigPath     = "~/.config/cleanerguard/config.toml"
	defaultDefinitionDir  = "~/.config/bleachbit/cleaners"
	defaultStateDir       = "~/.local/share/cleanerguard"
	defaultLogDir         = "~/.local/share/cleanerguard/logs"
	defaultInclude        = "**/*.xml"
	defaultStoreBackend   = "json"
	defaultScanWorkers    = 4
	defaultConfirmMode    = "auto"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultLogMaxSizeMB   = 5
	defaultLogMaxBackups  = 3
	definitionDirsEnvName = "CLEANERGUARD_DEFINITION_DIRS"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DefinitionDirs: []string{defaultDefinitionDir},
			StateDir:       defaultStateDirPath(),
			LogDir:         defaultLogDir,
		},
		Discovery: Discovery{
			Include: []string{defaultInclude},
		},
		Store: Store{
			Backend: defaultStoreBackend,
		},
		Scan: Scan{
			Workers:               defaultScanWorkers,
			Confirm:               defaultConfirmMode,
			RestrictDeleteToRoots: true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}

func defaultStateDirPath() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "cleanerguard")
	}
	return defaultStateDir
}

func defaultStoreFile(backend string) string {
	if backend == "sqlite" {
		return "trust.db"
	}
	return "trust.json"
}
