// Package qqwry reads the classic GBK-encoded IPv4 range database.
//
// File layout: an 8-byte header holding the little-endian byte
// positions of the first and last index entry, a record area, and a
// packed index of 7-byte entries (4-byte range start + 3-byte record
// offset) sorted ascending. Records start with the 4-byte range end,
// followed by the GBK country and area strings with optional
// redirects.
package qqwry

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"

	"github.com/tevino/abool"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/whereip/whereip/geo"
	"github.com/whereip/whereip/wry"
)

const entryLen = 7

// DB is a classic-format IPv4 database handle.
type DB struct {
	name   string
	loaded *abool.AtomicBool

	data     []byte
	idxStart uint32
	idxEnd   uint32
}

// New returns a new unloaded handle.
func New() *DB {
	return &DB{
		name:   "qqwry",
		loaded: abool.New(),
	}
}

// Name returns the logical name of the database.
func (db *DB) Name() string { return db.name }

// Kind returns the on-disk format kind.
func (db *DB) Kind() geo.Kind { return geo.KindQQWry }

// SupportsIPv4 reports whether LookupIP accepts IPv4 addresses.
func (db *DB) SupportsIPv4() bool { return true }

// SupportsIPv6 reports whether LookupIP accepts IPv6 addresses.
func (db *DB) SupportsIPv6() bool { return false }

// SupportsCDN reports whether LookupCDN is implemented.
func (db *DB) SupportsCDN() bool { return false }

// IsLoaded reports whether the handle has been loaded.
func (db *DB) IsLoaded() bool { return db.loaded.IsSet() }

// LoadFromFile loads and validates the database file at path.
func (db *DB) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read database file: %w", err)
	}

	if len(data) < 8 {
		return fmt.Errorf("%w: file of %d bytes is too small", geo.ErrParse, len(data))
	}
	idxStart := wry.GetUint32(data[0:])
	idxEnd := wry.GetUint32(data[4:])
	if idxStart >= idxEnd || uint64(len(data)) < uint64(idxEnd)+entryLen {
		return fmt.Errorf("%w: index region %d..%d does not fit file of %d bytes",
			geo.ErrCorrupted, idxStart, idxEnd, len(data))
	}

	db.data = data
	db.idxStart = idxStart
	db.idxEnd = idxEnd
	db.loaded.Set()

	slog.Info(
		"qqwry database loaded",
		"path", path,
		"records", (idxEnd-idxStart)/entryLen+1,
	)
	return nil
}

// LookupIP returns the geolocation record of the given IPv4 address.
// Other addresses yield no answer.
func (db *DB) LookupIP(ip netip.Addr) (*geo.Record, error) {
	if !db.loaded.IsSet() {
		return nil, geo.ErrNotLoaded
	}
	if !ip.Is4() {
		return nil, nil
	}

	a4 := ip.As4()
	num := uint32(a4[0])<<24 | uint32(a4[1])<<16 | uint32(a4[2])<<8 | uint32(a4[3])

	idx := wry.Index{
		Data:        db.data,
		Start:       uint64(db.idxStart),
		End:         uint64(db.idxEnd),
		KeyWidth:    4,
		OffsetWidth: 3,
	}
	offset, err := idx.Search(uint64(num))
	if err != nil {
		return nil, err
	}

	// Skip the 4-byte range end at the record start.
	country, area, err := wry.NewCursor(db.data).Parse(offset + 4)
	if err != nil {
		return nil, err
	}

	return &geo.Record{
		IP:          ip,
		Country:     wry.Clean(decodeGBK(country)),
		ISP:         wry.Clean(decodeGBK(area)),
		CountryCode: "CN",
		Timezone:    "Asia/Shanghai",
	}, nil
}

// LookupCDN is not supported by this format.
func (db *DB) LookupCDN(domain string) (*geo.CDNRecord, error) {
	return nil, nil
}

// decodeGBK decodes GBK bytes to a UTF-8 string. Undecodable bytes are
// replaced, a lookup never fails on bad string data.
func decodeGBK(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
