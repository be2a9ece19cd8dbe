package config

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if len(c.Paths.DefinitionDirs) == 0 {
		return fmt.Errorf("paths.definition_dirs must list at least one directory (or set %s)", definitionDirsEnvName)
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	for _, pattern := range append(append([]string{}, c.Discovery.Include...), c.Discovery.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("discovery: invalid glob pattern %q", pattern)
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.backend: unsupported value %q (want json or sqlite)", c.Store.Backend)
	}
	if c.Store.Path == "" {
		return errors.New("store.path must be set")
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Workers < 1 {
		return errors.New("scan.workers must be at least 1")
	}
	switch c.Scan.Confirm {
	case "auto", "dialog", "prompt":
	default:
		return fmt.Errorf("scan.confirm: unsupported value %q (want auto, dialog, or prompt)", c.Scan.Confirm)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
