// Package demo provides placeholder handles for database formats whose
// decoders are not implemented yet. They load without touching the
// file and answer every IP lookup with fixed demonstration data.
package demo

import (
	"log/slog"
	"net/netip"

	"github.com/tevino/abool"

	"github.com/whereip/whereip/geo"
)

// DB is a placeholder database handle with a fixed answer.
type DB struct {
	name   string
	kind   geo.Kind
	loaded *abool.AtomicBool
	answer geo.Record
}

// DBIP returns the placeholder handle for the DB-IP format.
func DBIP() *DB {
	return &DB{
		name:   "dbip",
		kind:   geo.KindDBIP,
		loaded: abool.New(),
		answer: geo.Record{
			Country:     "United States",
			Region:      "California",
			City:        "San Jose",
			ISP:         "AT&T",
			CountryCode: "US",
			Timezone:    "America/Los_Angeles",
			Latitude:    geo.Float64(37.3382),
			Longitude:   geo.Float64(-121.8863),
		},
	}
}

// IP2Region returns the placeholder handle for the ip2region format.
func IP2Region() *DB {
	return &DB{
		name:   "ip2region",
		kind:   geo.KindIP2Region,
		loaded: abool.New(),
		answer: geo.Record{
			Country:     "China",
			Region:      "Beijing",
			City:        "Beijing",
			ISP:         "China Unicom",
			CountryCode: "CN",
			Timezone:    "Asia/Shanghai",
			Latitude:    geo.Float64(39.9042),
			Longitude:   geo.Float64(116.4074),
		},
	}
}

// IP2Location returns the placeholder handle for the ip2location format.
func IP2Location() *DB {
	return &DB{
		name:   "ip2location",
		kind:   geo.KindIP2Location,
		loaded: abool.New(),
		answer: geo.Record{
			Country:     "United Kingdom",
			Region:      "England",
			City:        "London",
			ISP:         "British Telecom",
			CountryCode: "GB",
			Timezone:    "Europe/London",
			Latitude:    geo.Float64(51.5074),
			Longitude:   geo.Float64(-0.1278),
		},
	}
}

// Name returns the logical name of the database.
func (db *DB) Name() string { return db.name }

// Kind returns the on-disk format kind.
func (db *DB) Kind() geo.Kind { return db.kind }

// SupportsIPv4 reports whether LookupIP accepts IPv4 addresses.
func (db *DB) SupportsIPv4() bool { return true }

// SupportsIPv6 reports whether LookupIP accepts IPv6 addresses.
func (db *DB) SupportsIPv6() bool { return false }

// SupportsCDN reports whether LookupCDN is implemented.
func (db *DB) SupportsCDN() bool { return false }

// IsLoaded reports whether the handle has been loaded.
func (db *DB) IsLoaded() bool { return db.loaded.IsSet() }

// LoadFromFile marks the handle loaded without reading the file.
func (db *DB) LoadFromFile(path string) error {
	db.loaded.Set()
	slog.Info("placeholder database loaded", "name", db.name, "path", path)
	return nil
}

// LookupIP returns the fixed demonstration answer for any address.
func (db *DB) LookupIP(ip netip.Addr) (*geo.Record, error) {
	if !db.loaded.IsSet() {
		return nil, geo.ErrNotLoaded
	}
	record := db.answer
	record.IP = ip
	return &record, nil
}

// LookupCDN is not supported by placeholder handles.
func (db *DB) LookupCDN(domain string) (*geo.CDNRecord, error) {
	return nil, nil
}
