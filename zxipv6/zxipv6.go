// Package zxipv6 reads the IPv6 variant of the classic range database.
//
// File layout: a 24-byte header starting with the "IPDB" magic, the
// offset and key widths at bytes 6 and 7, the entry count and index
// start as little-endian 64-bit values, then the packed index of
// 11-byte entries (8-byte range start + 3-byte record offset). Ranges
// are keyed by the upper 64 bits of the address. Records hold
// UTF-8 strings and use the same redirect scheme as the classic
// format, without a leading range end.
package zxipv6

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/tevino/abool"

	"github.com/whereip/whereip/geo"
	"github.com/whereip/whereip/wry"
)

const (
	magic     = "IPDB"
	headerLen = 24
	entryLen  = 11
)

// DB is an IPv6-variant database handle.
type DB struct {
	name   string
	loaded *abool.AtomicBool

	data     []byte
	idxStart uint64
	idxEnd   uint64
	offLen   uint8
	ipLen    uint8
}

// New returns a new unloaded handle.
func New() *DB {
	return &DB{
		name:   "zxipv6wry",
		loaded: abool.New(),
	}
}

// Name returns the logical name of the database.
func (db *DB) Name() string { return db.name }

// Kind returns the on-disk format kind.
func (db *DB) Kind() geo.Kind { return geo.KindZXIPv6 }

// SupportsIPv4 reports whether LookupIP accepts IPv4 addresses.
func (db *DB) SupportsIPv4() bool { return false }

// SupportsIPv6 reports whether LookupIP accepts IPv6 addresses.
func (db *DB) SupportsIPv6() bool { return true }

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
	if err := checkFile(data); err != nil {
		return err
	}

	offLen := data[6]
	ipLen := data[7]
	count := wry.GetUint64(data[8:])
	idxStart := wry.GetUint64(data[16:])

	if offLen == 0 || ipLen == 0 {
		return fmt.Errorf("%w: invalid entry widths %d+%d", geo.ErrCorrupted, ipLen, offLen)
	}

	db.data = data
	db.offLen = offLen
	db.ipLen = ipLen
	db.idxStart = idxStart
	db.idxEnd = idxStart + count*entryLen
	db.loaded.Set()

	slog.Info(
		"zxipv6 database loaded",
		"path", path,
		"records", count,
	)
	return nil
}

func checkFile(data []byte) error {
	if len(data) < len(magic) {
		return fmt.Errorf("%w: file of %d bytes is too small", geo.ErrParse, len(data))
	}
	if string(data[:len(magic)]) != magic {
		return fmt.Errorf("%w: bad magic", geo.ErrParse)
	}
	if len(data) < headerLen {
		return fmt.Errorf("%w: file of %d bytes is too small", geo.ErrParse, len(data))
	}
	count := wry.GetUint64(data[8:])
	start := wry.GetUint64(data[16:])
	end := start + count*entryLen
	if start >= end || uint64(len(data)) < end {
		return fmt.Errorf("%w: index region %d..%d does not fit file of %d bytes",
			geo.ErrCorrupted, start, end, len(data))
	}
	return nil
}

// LookupIP returns the geolocation record of the given IPv6 address.
// Only the upper 64 bits take part in the lookup. Other addresses
// yield no answer.
func (db *DB) LookupIP(ip netip.Addr) (*geo.Record, error) {
	if !db.loaded.IsSet() {
		return nil, geo.ErrNotLoaded
	}
	if !ip.Is6() || ip.Is4In6() {
		return nil, nil
	}

	a16 := ip.As16()
	num := uint64(a16[0])<<56 | uint64(a16[1])<<48 | uint64(a16[2])<<40 | uint64(a16[3])<<32 |
		uint64(a16[4])<<24 | uint64(a16[5])<<16 | uint64(a16[6])<<8 | uint64(a16[7])

	idx := wry.Index{
		Data:        db.data,
		Start:       db.idxStart,
		End:         db.idxEnd,
		KeyWidth:    int(db.ipLen),
		OffsetWidth: int(db.offLen),
	}
	offset, err := idx.Search(num)
	if err != nil {
		return nil, err
	}

	country, area, err := wry.NewCursor(db.data).Parse(offset)
	if err != nil {
		return nil, err
	}

	// The record area holds the answer for the upper 64 bits only.
	var upper [16]byte
	copy(upper[:8], a16[:8])

	return &geo.Record{
		IP:      netip.AddrFrom16(upper),
		Country: wry.Clean(decodeUTF8(country)),
		ISP:     wry.Clean(decodeUTF8(area)),
	}, nil
}

// LookupCDN is not supported by this format.
func (db *DB) LookupCDN(domain string) (*geo.CDNRecord, error) {
	return nil, nil
}

// decodeUTF8 interprets the bytes as UTF-8, replacing invalid
// sequences. A lookup never fails on bad string data.
func decodeUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
