// Package config locates and reads the pitchdial settings file.
package config

import (
	"os"
	"path/filepath"
)

// PathEnv names a config file that replaces the XDG location, so a lab
// machine can point every account at one shared rig file.
const PathEnv = "PITCHDIAL_CONFIG"

// configDir is the base directory for per-user settings. A relative
// XDG_CONFIG_HOME is ignored as the XDG base directory rules require.
func configDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); filepath.IsAbs(v) {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultConfigPath is $PITCHDIAL_CONFIG when set, otherwise
// pitchdial/config.toml under the user config directory.
func DefaultConfigPath() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return filepath.Join(configDir(), "pitchdial", "config.toml")
}
