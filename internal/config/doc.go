// Package config loads, normalizes, and validates cleanerguard configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CLEANERGUARD_DEFINITION_DIRS
// environment fallback. The Config type centralizes every knob the scanner and
// CLI need so definition directories, the trust store location, and logging
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
