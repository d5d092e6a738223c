// Package config holds the storable configuration and its parsed,
// validated form: logical database names and aliases, file locations,
// provisioning sources and lookup selections.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/whereip/whereip/geo"
)

// Environment variables overriding the lookup selections.
const (
	envDBIPv4 = "WHEREIP_DB_IP4"
	envDBIPv6 = "WHEREIP_DB_IP6"
	envDBCDN  = "WHEREIP_DB_CDN"
)

// Config holds initialized configuration.
type Config struct {
	Store

	// ConfigDir is the resolved configuration directory.
	ConfigDir string
	// DataDir is the resolved database directory.
	DataDir string

	byName map[string]DatabaseInfo
}

var knownFormats = map[string]geo.Kind{
	"qqwry":       geo.KindQQWry,
	"zxipv6":      geo.KindZXIPv6,
	"ipdb":        geo.KindZXIPv6,
	"ipip":        geo.KindIPIP,
	"mmdb":        geo.KindMMDB,
	"cdn":         geo.KindCDN,
	"yaml":        geo.KindCDN,
	"dbip":        geo.KindDBIP,
	"ip2region":   geo.KindIP2Region,
	"ip2location": geo.KindIP2Location,
}

// KindOfFormat maps a config format name to the format kind.
func KindOfFormat(format string) (geo.Kind, bool) {
	kind, ok := knownFormats[format]
	return kind, ok
}

// Parse parses a config definition and returns an initialized config.
func (s Store) Parse() (*Config, error) {
	c := &Config{
		Store:  s,
		byName: make(map[string]DatabaseInfo),
	}

	// Fill defaults.
	if c.Lookup.IPv4 == "" {
		c.Lookup.IPv4 = defaultLookup().IPv4
	}
	if c.Lookup.IPv6 == "" {
		c.Lookup.IPv6 = defaultLookup().IPv6
	}
	if c.Lookup.CDN == "" {
		c.Lookup.CDN = defaultLookup().CDN
	}
	configured := make(map[string]struct{}, len(c.Databases))
	for _, info := range c.Databases {
		configured[info.Name] = struct{}{}
	}
	for _, info := range defaultDatabases() {
		if _, ok := configured[info.Name]; !ok {
			c.Databases = append(c.Databases, info)
		}
	}

	// Env overrides.
	if v := os.Getenv(envDBIPv4); v != "" {
		c.Lookup.IPv4 = v
	}
	if v := os.Getenv(envDBIPv6); v != "" {
		c.Lookup.IPv6 = v
	}
	if v := os.Getenv(envDBCDN); v != "" {
		c.Lookup.CDN = v
	}

	// Index and check the catalog.
	for _, info := range c.Databases {
		if info.Name == "" {
			return nil, fmt.Errorf("database entry without a name")
		}
		if _, ok := knownFormats[info.Format]; !ok {
			return nil, fmt.Errorf("database %s has unknown format %q", info.Name, info.Format)
		}
		for _, name := range append([]string{info.Name}, info.Aliases...) {
			if _, ok := c.byName[name]; ok {
				return nil, fmt.Errorf("duplicate database name %q", name)
			}
			c.byName[name] = info
		}
	}

	// Lookup selections must resolve to catalog entries.
	for _, name := range []string{c.Lookup.IPv4, c.Lookup.IPv6, c.Lookup.CDN} {
		if _, err := c.Database(name); err != nil {
			return nil, fmt.Errorf("lookup selection: %w", err)
		}
	}

	c.ConfigDir = configDir()
	c.DataDir = dataDir()
	return c, nil
}

// MakeTestConfig parses and returns the given config store.
// If anything fails, it panics.
func MakeTestConfig(s Store) *Config {
	c, err := s.Parse()
	if err != nil {
		panic("test config invalid: " + err.Error())
	}
	return c
}

// Database returns the catalog entry for the given logical name or
// alias.
func (c *Config) Database(name string) (DatabaseInfo, error) {
	if info, ok := c.byName[name]; ok {
		return info, nil
	}
	return DatabaseInfo{}, fmt.Errorf("%w: %s", geo.ErrNotFound, name)
}

// DatabasePath returns the file path of the given logical name:
// a configured path override, the catalog file within the data
// directory, or name.dat within the data directory.
func (c *Config) DatabasePath(name string) string {
	if path, ok := c.Paths[name]; ok {
		return expandHome(path)
	}
	if info, err := c.Database(name); err == nil && info.File != "" {
		return filepath.Join(c.DataDir, info.File)
	}
	return filepath.Join(c.DataDir, name+".dat")
}

// ConfigFile returns the path of the main config file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.ConfigDir, "config.yaml")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
