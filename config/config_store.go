package config

import (
	"github.com/mitchellh/copystructure"
)

// Store holds all configuration in a storable format.
type Store struct {
	Lookup    Lookup            `json:"lookup,omitempty"    yaml:"lookup,omitempty"`
	Paths     map[string]string `json:"paths,omitempty"     yaml:"paths,omitempty"`
	Databases []DatabaseInfo    `json:"databases,omitempty" yaml:"databases,omitempty"`
}

// Lookup selects the logical database used for each query class.
type Lookup struct {
	IPv4 string `json:"ipv4,omitempty" yaml:"ipv4,omitempty"`
	IPv6 string `json:"ipv6,omitempty" yaml:"ipv6,omitempty"`
	CDN  string `json:"cdn,omitempty"  yaml:"cdn,omitempty"`
}

// DatabaseInfo describes one known database.
type DatabaseInfo struct {
	// Name is the primary logical name.
	Name string `json:"name" yaml:"name"`

	// Aliases are alternative logical names.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// Format selects the decoder for the database file.
	Format string `json:"format" yaml:"format"`

	// File is the file name within the data directory.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// Sources holds download URLs, tried in order when provisioning.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Clone returns a full copy of the store.
func (s Store) Clone() (Store, error) {
	copied, err := copystructure.Copy(s)
	if err != nil {
		return Store{}, err
	}
	return copied.(Store), nil //nolint:forcetypeassert
}
