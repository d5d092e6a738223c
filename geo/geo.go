// Package geo defines the shared data model of all lookup databases.
package geo

import (
	"net/netip"
)

// Record holds the result of a single IP geolocation lookup.
// Fields that the source database does not carry are left empty.
type Record struct {
	IP netip.Addr `json:"ip" yaml:"ip"`

	Country     string `json:"country,omitempty" yaml:"country,omitempty"`
	Region      string `json:"region,omitempty" yaml:"region,omitempty"`
	City        string `json:"city,omitempty" yaml:"city,omitempty"`
	ISP         string `json:"isp,omitempty" yaml:"isp,omitempty"`
	CountryCode string `json:"countryCode,omitempty" yaml:"countryCode,omitempty"`
	Timezone    string `json:"timezone,omitempty" yaml:"timezone,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
}

// CDNRecord holds the result of a single CDN provider lookup.
type CDNRecord struct {
	Domain      string `json:"domain" yaml:"domain"`
	Provider    string `json:"provider" yaml:"provider"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Kind identifies the on-disk format a database handle decodes.
type Kind string

// Database format kinds.
const (
	KindQQWry       Kind = "qqwry"
	KindZXIPv6      Kind = "zxipv6"
	KindIPIP        Kind = "ipip"
	KindMMDB        Kind = "mmdb"
	KindCDN         Kind = "cdn"
	KindDBIP        Kind = "dbip"
	KindIP2Region   Kind = "ip2region"
	KindIP2Location Kind = "ip2location"
)

// Database is a lookup database handle.
// Handles are created empty and become usable after LoadFromFile.
// Lookups return a nil record and a nil error when the database holds
// no answer for the query.
type Database interface {
	// Name returns the logical name of the database.
	Name() string

	// Kind returns the on-disk format kind.
	Kind() Kind

	// SupportsIPv4 reports whether LookupIP accepts IPv4 addresses.
	SupportsIPv4() bool

	// SupportsIPv6 reports whether LookupIP accepts IPv6 addresses.
	SupportsIPv6() bool

	// SupportsCDN reports whether LookupCDN is implemented.
	SupportsCDN() bool

	// IsLoaded reports whether the handle has been loaded.
	IsLoaded() bool

	// LoadFromFile loads and validates the database file at path.
	LoadFromFile(path string) error

	// LookupIP returns the geolocation record of the given IP address.
	LookupIP(ip netip.Addr) (*Record, error)

	// LookupCDN returns the CDN provider record of the given domain.
	LookupCDN(domain string) (*CDNRecord, error)
}

// Float64 returns a pointer to the given value, for optional record fields.
func Float64(v float64) *float64 {
	return &v
}
