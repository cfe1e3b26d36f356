// Package paths resolves configuration and data directory locations for the
// sprintplan CLI. Precedence for both directories is flag > environment
// variable > conventional cwd-relative default.
package paths

import (
	"os"
	"path/filepath"
)

// CWD-relative directory names used when neither flag nor environment supply
// a location.
const (
	DefaultConfigDirName = ".sprintplan"
	DefaultDataDirName   = ".sprintplan-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "SPRINTPLAN_CONFIG_DIR"
	EnvDataDir   = "SPRINTPLAN_DATA_DIR"
)

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > SPRINTPLAN_CONFIG_DIR env > .sprintplan.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Abs(DefaultConfigDirName)
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config.yaml value > SPRINTPLAN_DATA_DIR env > .sprintplan-db. Only
// the relational and document backends consume this; the in-memory backend
// ignores it.
func ResolveDataDir(flag, config string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if config != "" {
		return filepath.Abs(config)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Abs(DefaultDataDirName)
}
