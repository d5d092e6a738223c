package qqwry

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whereip/whereip/geo"
	"github.com/whereip/whereip/testutil"
	"github.com/whereip/whereip/wry"
)

func writeDB(t *testing.T, data []byte) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "qqwry.dat")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	db := New()
	require.NoError(t, db.LoadFromFile(path), "load must succeed")
	require.True(t, db.IsLoaded())
	return db
}

func TestLookupLoopback(t *testing.T) {
	t.Parallel()

	db := writeDB(t, testutil.BuildClassic([]testutil.RangeEntry{
		{Key: 0x7F000001, Record: testutil.DirectRecord(0x7F0000FF, testutil.GBK("本地"), testutil.GBK("回环"))},
	}))

	record, err := db.LookupIP(netip.MustParseAddr("127.0.0.1"))
	require.NoError(t, err, "lookup must succeed")
	require.NotNil(t, record, "lookup must return a record")
	assert.Equal(t, "本地", record.Country, "country must decode from GBK")
	assert.Equal(t, "回环", record.ISP, "area must decode from GBK")
	assert.Equal(t, "CN", record.CountryCode)
	assert.Equal(t, "Asia/Shanghai", record.Timezone)

	// Addresses deeper in the range resolve to the same record.
	record, err = db.LookupIP(netip.MustParseAddr("127.0.0.80"))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "本地", record.Country)
}

func TestLookupMultipleRanges(t *testing.T) {
	t.Parallel()

	ranges := []struct {
		prefix  string
		country string
		isp     string
	}{
		{prefix: "1.0.0.0/8", country: "美国", isp: "APNIC"},
		{prefix: "2.0.0.0/8", country: "法国", isp: "Orange"},
		{prefix: "3.0.0.0/8", country: "中国", isp: "电信"},
	}
	entries := make([]testutil.RangeEntry, 0, len(ranges))
	for _, r := range ranges {
		start, end := testutil.PrefixRange(netip.MustParsePrefix(r.prefix))
		entries = append(entries, testutil.RangeEntry{
			Key:    start,
			Record: testutil.DirectRecord(end, testutil.GBK(r.country), testutil.GBK(r.isp)),
		})
	}
	db := writeDB(t, testutil.BuildClassic(entries))

	tests := []struct {
		ip      string
		country string
		isp     string
	}{
		{ip: "1.0.0.1", country: "美国", isp: "APNIC"},
		{ip: "2.128.0.1", country: "法国", isp: "Orange"},
		{ip: "3.255.255.255", country: "中国", isp: "电信"},
	}
	for _, tc := range tests {
		record, err := db.LookupIP(netip.MustParseAddr(tc.ip))
		require.NoError(t, err, "lookup %s must succeed", tc.ip)
		require.NotNil(t, record, "lookup %s must return a record", tc.ip)
		assert.Equal(t, tc.country, record.Country, "country for %s", tc.ip)
		assert.Equal(t, tc.isp, record.ISP, "isp for %s", tc.ip)
	}
}

func TestLookupStripsTrademarkToken(t *testing.T) {
	t.Parallel()

	db := writeDB(t, testutil.BuildClassic([]testutil.RangeEntry{
		{Key: 0x08080808, Record: testutil.DirectRecord(0x08080808, testutil.GBK("谷歌"), []byte(" CZ88.NET "))},
	}))

	record, err := db.LookupIP(netip.MustParseAddr("8.8.8.8"))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "谷歌", record.Country)
	assert.Empty(t, record.ISP, "trademark-only area must be stripped to empty")
}

func TestLookupRedirectedRecord(t *testing.T) {
	t.Parallel()

	// Build a file with a full-redirect record by hand: the index
	// entry points at a record whose location part redirects.
	target := testutil.DirectRecord(0, testutil.GBK("中国"), testutil.GBK("联通"))

	redirecting := make([]byte, 8)
	wry.PutUint32(redirecting, 0x0AFFFFFF) // range end
	redirecting[4] = 0x01
	// Redirect to the location part of the target record, which sits
	// at offset 8 (header) + 4 (range end of the first record).
	wry.PutUint24(redirecting[5:], 8+4)

	db := writeDB(t, testutil.BuildClassic([]testutil.RangeEntry{
		{Key: 0x0A000000, Record: target},
		{Key: 0x0B000000, Record: redirecting},
	}))

	record, err := db.LookupIP(netip.MustParseAddr("11.0.0.1"))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "中国", record.Country, "redirected country must resolve")
	assert.Equal(t, "联通", record.ISP, "redirected area must resolve")
}

func TestLookupIPv6Unsupported(t *testing.T) {
	t.Parallel()

	db := writeDB(t, testutil.BuildClassic([]testutil.RangeEntry{
		{Key: 0x7F000001, Record: testutil.DirectRecord(0x7F0000FF, testutil.GBK("本地"), nil)},
	}))

	record, err := db.LookupIP(netip.MustParseAddr("2001:db8::1"))
	require.NoError(t, err, "unsupported family must not error")
	assert.Nil(t, record, "unsupported family must yield no answer")
}

func TestLookupNotLoaded(t *testing.T) {
	t.Parallel()

	db := New()
	_, err := db.LookupIP(netip.MustParseAddr("1.2.3.4"))
	assert.ErrorIs(t, err, geo.ErrNotLoaded)
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Too small for the header.
	small := filepath.Join(dir, "small.dat")
	require.NoError(t, os.WriteFile(small, []byte{1, 2, 3}, 0o644))
	err := New().LoadFromFile(small)
	assert.ErrorIs(t, err, geo.ErrParse, "tiny file must be rejected")

	// Inverted index region.
	inverted := make([]byte, 32)
	wry.PutUint32(inverted[0:], 20)
	wry.PutUint32(inverted[4:], 10)
	invertedPath := filepath.Join(dir, "inverted.dat")
	require.NoError(t, os.WriteFile(invertedPath, inverted, 0o644))
	err = New().LoadFromFile(invertedPath)
	assert.ErrorIs(t, err, geo.ErrCorrupted, "inverted index must be rejected")

	// Index region pointing past the end of the file.
	truncated := make([]byte, 32)
	wry.PutUint32(truncated[0:], 8)
	wry.PutUint32(truncated[4:], 1000)
	truncatedPath := filepath.Join(dir, "truncated.dat")
	require.NoError(t, os.WriteFile(truncatedPath, truncated, 0o644))
	err = New().LoadFromFile(truncatedPath)
	assert.ErrorIs(t, err, geo.ErrCorrupted, "truncated index must be rejected")
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	db := New()
	assert.Equal(t, "qqwry", db.Name())
	assert.Equal(t, geo.KindQQWry, db.Kind())
	assert.True(t, db.SupportsIPv4())
	assert.False(t, db.SupportsIPv6())
	assert.False(t, db.SupportsCDN())
	assert.False(t, db.IsLoaded())

	record, err := db.LookupCDN("example.com")
	require.NoError(t, err)
	assert.Nil(t, record)
}
