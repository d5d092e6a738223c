// Package mmdb is a thin pass-through to MMDB-format databases such as
// GeoLite2, backed by the maxminddb reader.
package mmdb

import (
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/oschwald/maxminddb-golang/v2"
	"github.com/tevino/abool"

	"github.com/whereip/whereip/geo"
)

// DB is an MMDB database handle.
type DB struct {
	name   string
	loaded *abool.AtomicBool

	reader *maxminddb.Reader
}

// New returns a new unloaded handle.
func New() *DB {
	return &DB{
		name:   "geoip2",
		loaded: abool.New(),
	}
}

// Name returns the logical name of the database.
func (db *DB) Name() string { return db.name }

// Kind returns the on-disk format kind.
func (db *DB) Kind() geo.Kind { return geo.KindMMDB }

// SupportsIPv4 reports whether LookupIP accepts IPv4 addresses.
func (db *DB) SupportsIPv4() bool { return true }

// SupportsIPv6 reports whether LookupIP accepts IPv6 addresses.
func (db *DB) SupportsIPv6() bool { return true }

// SupportsCDN reports whether LookupCDN is implemented.
func (db *DB) SupportsCDN() bool { return false }

// IsLoaded reports whether the handle has been loaded.
func (db *DB) IsLoaded() bool { return db.loaded.IsSet() }

// LoadFromFile opens the MMDB file at path.
func (db *DB) LoadFromFile(path string) error {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", geo.ErrParse, err)
	}

	db.reader = reader
	db.loaded.Set()

	slog.Info("mmdb database loaded", "path", path)
	return nil
}

// LookupIP returns the geolocation record of the given IP address.
func (db *DB) LookupIP(ip netip.Addr) (*geo.Record, error) {
	if !db.loaded.IsSet() {
		return nil, geo.ErrNotLoaded
	}

	result := db.reader.Lookup(ip)

	var (
		isoCode      string
		countryNames map[string]string
		cityNames    map[string]string
		subdivNames  map[string]string
		timezone     string
		latitude     float64
		longitude    float64
	)
	if err := result.DecodePath(&isoCode, "country", "iso_code"); err != nil {
		return nil, fmt.Errorf("mmdb lookup: %w", err)
	}
	// Secondary fields are best-effort, not every MMDB flavor has them.
	_ = result.DecodePath(&countryNames, "country", "names")
	_ = result.DecodePath(&cityNames, "city", "names")
	_ = result.DecodePath(&subdivNames, "subdivisions", 0, "names")
	_ = result.DecodePath(&timezone, "location", "time_zone")
	_ = result.DecodePath(&latitude, "location", "latitude")
	_ = result.DecodePath(&longitude, "location", "longitude")

	country := pickName(countryNames)
	city := pickName(cityNames)
	region := pickName(subdivNames)

	if isoCode == "" && country == "" && city == "" {
		return nil, nil
	}

	record := &geo.Record{
		IP:          ip,
		Country:     country,
		Region:      region,
		City:        city,
		CountryCode: isoCode,
		Timezone:    timezone,
	}
	if latitude != 0 || longitude != 0 {
		record.Latitude = geo.Float64(latitude)
		record.Longitude = geo.Float64(longitude)
	}
	return record, nil
}

// LookupCDN is not supported by this format.
func (db *DB) LookupCDN(domain string) (*geo.CDNRecord, error) {
	return nil, nil
}

// pickName prefers the simplified Chinese name, then English, then any.
func pickName(names map[string]string) string {
	if name, ok := names["zh-CN"]; ok {
		return name
	}
	if name, ok := names["en"]; ok {
		return name
	}
	for _, name := range names {
		return name
	}
	return ""
}
