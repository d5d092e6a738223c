// Package testutil builds synthetic database files for format tests.
package testutil

import (
	"net/netip"

	"go4.org/netipx"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/whereip/whereip/wry"
)

// GBK encodes the given string as GBK bytes.
// Panics on unencodable input, which is fine for test data.
func GBK(s string) []byte {
	b, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return b
}

// DirectRecord builds a classic-format location record: the 4-byte
// little-endian range end followed by two NUL-terminated strings.
func DirectRecord(endIP uint32, country, area []byte) []byte {
	record := make([]byte, 0, 4+len(country)+len(area)+2)
	var end [4]byte
	wry.PutUint32(end[:], endIP)
	record = append(record, end[:]...)
	record = append(record, country...)
	record = append(record, 0)
	record = append(record, area...)
	record = append(record, 0)
	return record
}

// RangeEntry is one IP range of a synthetic classic-format file.
type RangeEntry struct {
	// Key is the numeric range start, stored little-endian in the index.
	Key uint32
	// Record is the record-area payload the index entry points at.
	Record []byte
}

// BuildClassic assembles a classic-format (qqwry-style) database file:
// an 8-byte header, the record area, and the packed 7-byte index
// followed by a max-key sentinel entry serving as the right boundary.
func BuildClassic(entries []RangeEntry) []byte {
	buf := make([]byte, 8)

	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		offsets[i] = uint32(len(buf))
		buf = append(buf, e.Record...)
	}

	idxStart := uint32(len(buf))
	for i, e := range entries {
		entry := make([]byte, 7)
		wry.PutUint32(entry, e.Key)
		wry.PutUint24(entry[4:], offsets[i])
		buf = append(buf, entry...)
	}
	// Sentinel right boundary entry.
	sentinel := make([]byte, 7)
	wry.PutUint32(sentinel, 0xFFFFFFFF)
	wry.PutUint24(sentinel[4:], offsets[len(offsets)-1])
	buf = append(buf, sentinel...)

	idxEnd := idxStart + uint32(len(entries))*7

	wry.PutUint32(buf[0:], idxStart)
	wry.PutUint32(buf[4:], idxEnd)
	return buf
}

// Range6Entry is one IP range of a synthetic IPv6-variant file.
type Range6Entry struct {
	// Key is the upper 64 bits of the range start address.
	Key uint64
	// Record is the record-area payload the index entry points at.
	Record []byte
}

// Prefix6Key returns the upper 64 bits of the prefix base address,
// for building Range6Entry keys from prefixes.
func Prefix6Key(p netip.Prefix) uint64 {
	a16 := p.Addr().As16()
	return wry.GetUint64(reverse8(a16[:8]))
}

// PrefixRange returns the numeric IPv4 start and end of the prefix.
func PrefixRange(p netip.Prefix) (start, end uint32) {
	r := netipx.RangeOfPrefix(p)
	from4 := r.From().As4()
	to4 := r.To().As4()
	start = uint32(from4[0])<<24 | uint32(from4[1])<<16 | uint32(from4[2])<<8 | uint32(from4[3])
	end = uint32(to4[0])<<24 | uint32(to4[1])<<16 | uint32(to4[2])<<8 | uint32(to4[3])
	return start, end
}

func reverse8(b []byte) []byte {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = b[7-i]
	}
	return out
}

// BuildV6 assembles an IPv6-variant (IPDB-magic) database file: the
// 24-byte header, the packed 11-byte index with a trailing max-key
// sentinel, and the record area.
func BuildV6(entries []Range6Entry) []byte {
	const headerLen = 24
	indexLen := (len(entries) + 1) * 11
	recordsBase := headerLen + indexLen

	buf := make([]byte, headerLen, recordsBase)
	copy(buf, "IPDB")
	buf[6] = 3 // offset width
	buf[7] = 8 // key width
	wry.PutUint64(buf[8:], uint64(len(entries)))
	wry.PutUint64(buf[16:], headerLen)

	offsets := make([]uint32, len(entries))
	records := make([]byte, 0)
	for i, e := range entries {
		offsets[i] = uint32(recordsBase + len(records))
		records = append(records, e.Record...)
	}

	for i, e := range entries {
		entry := make([]byte, 11)
		wry.PutUint64(entry, e.Key)
		wry.PutUint24(entry[8:], offsets[i])
		buf = append(buf, entry...)
	}
	sentinel := make([]byte, 11)
	wry.PutUint64(sentinel, 0xFFFFFFFFFFFFFFFF)
	wry.PutUint24(sentinel[8:], offsets[len(offsets)-1])
	buf = append(buf, sentinel...)

	return append(buf, records...)
}

// FixedRecord is one 16-byte record of a synthetic fixed-record file.
type FixedRecord struct {
	StartIP, EndIP                     uint32
	CountryID, RegionID, CityID, ISPID uint16
}

// BuildFixed assembles a fixed-record (ipip-style) database file:
// a 16-byte header, the packed records, padding, and the NUL-separated
// translation text section where the format's heuristic expects it.
// Use an odd record count to keep midpoint probes entry-aligned.
func BuildFixed(records []FixedRecord, names []string) []byte {
	const indexStart = 16
	indexEnd := uint32(indexStart + (len(records)-1)*16)
	indexCount := (indexEnd - indexStart) / 16
	textStart := indexEnd + indexCount*16

	buf := make([]byte, indexStart)
	wry.PutUint32(buf[0:], 1)          // version
	wry.PutUint32(buf[4:], 1700000000) // created time
	wry.PutUint32(buf[8:], indexStart)
	wry.PutUint32(buf[12:], indexEnd)

	for _, r := range records {
		entry := make([]byte, 16)
		wry.PutUint32(entry[0:], r.StartIP)
		wry.PutUint32(entry[4:], r.EndIP)
		entry[8] = byte(r.CountryID)
		entry[9] = byte(r.CountryID >> 8)
		entry[10] = byte(r.RegionID)
		entry[11] = byte(r.RegionID >> 8)
		entry[12] = byte(r.CityID)
		entry[13] = byte(r.CityID >> 8)
		entry[14] = byte(r.ISPID)
		entry[15] = byte(r.ISPID >> 8)
		buf = append(buf, entry...)
	}

	for uint32(len(buf)) < textStart {
		buf = append(buf, 0)
	}
	for _, name := range names {
		buf = append(buf, []byte(name)...)
		buf = append(buf, 0)
	}
	return buf
}
