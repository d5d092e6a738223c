package config

import (
	"os"
	"path/filepath"
)

// Environment variables overriding directory resolution.
const (
	envHome       = "WHEREIP_HOME"
	envConfigHome = "WHEREIP_CONFIG_HOME"
	envDBHome     = "WHEREIP_DB_HOME"
)

// configDir resolves the configuration directory:
// WHEREIP_CONFIG_HOME, WHEREIP_HOME, then the user config dir.
func configDir() string {
	if dir := os.Getenv(envConfigHome); dir != "" {
		return dir
	}
	if dir := os.Getenv(envHome); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "whereip")
	}
	return "."
}

// dataDir resolves the database directory:
// WHEREIP_DB_HOME, WHEREIP_HOME, then the XDG data dir.
func dataDir() string {
	if dir := os.Getenv(envDBHome); dir != "" {
		return dir
	}
	if dir := os.Getenv(envHome); dir != "" {
		return dir
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "whereip")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "whereip")
	}
	return "."
}
