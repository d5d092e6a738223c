package zxipv6

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whereip/whereip/geo"
	"github.com/whereip/whereip/testutil"
)

func record(country, area string) []byte {
	b := append([]byte(country), 0)
	b = append(b, []byte(area)...)
	return append(b, 0)
}

func writeDB(t *testing.T, data []byte) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "zxipv6wry.db")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	db := New()
	require.NoError(t, db.LoadFromFile(path), "load must succeed")
	require.True(t, db.IsLoaded())
	return db
}

func TestLookupRanges(t *testing.T) {
	t.Parallel()

	db := writeDB(t, testutil.BuildV6([]testutil.Range6Entry{
		{Key: testutil.Prefix6Key(netip.MustParsePrefix("2001:db8::/32")), Record: record("中国", "示例网络")},
		{Key: testutil.Prefix6Key(netip.MustParsePrefix("2400::/16")), Record: record("日本", "NTT")},
		{Key: testutil.Prefix6Key(netip.MustParsePrefix("fe80::/16")), Record: record("本地", "链路本地")},
	}))

	tests := []struct {
		ip      string
		country string
		isp     string
	}{
		{ip: "2001:db8::1", country: "中国", isp: "示例网络"},
		{ip: "2001:db8:1234::1", country: "中国", isp: "示例网络"},
		{ip: "2400:8500::99", country: "日本", isp: "NTT"},
		{ip: "fe80::1", country: "本地", isp: "链路本地"},
	}
	for _, tc := range tests {
		rec, err := db.LookupIP(netip.MustParseAddr(tc.ip))
		require.NoError(t, err, "lookup %s must succeed", tc.ip)
		require.NotNil(t, rec, "lookup %s must return a record", tc.ip)
		assert.Equal(t, tc.country, rec.Country, "country for %s", tc.ip)
		assert.Equal(t, tc.isp, rec.ISP, "isp for %s", tc.ip)
		assert.Empty(t, rec.CountryCode, "format carries no country code")
		assert.Empty(t, rec.Timezone, "format carries no timezone")
	}
}

func TestLookupTruncatesToUpperBits(t *testing.T) {
	t.Parallel()

	db := writeDB(t, testutil.BuildV6([]testutil.Range6Entry{
		{Key: testutil.Prefix6Key(netip.MustParsePrefix("2001:db8::/32")), Record: record("中国", "")},
	}))

	rec, err := db.LookupIP(netip.MustParseAddr("2001:db8::dead:beef"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	// The reported address keeps only the upper 64 bits.
	assert.Equal(t, netip.MustParseAddr("2001:db8::"), rec.IP)
}

func TestLookupIPv4Unsupported(t *testing.T) {
	t.Parallel()

	db := writeDB(t, testutil.BuildV6([]testutil.Range6Entry{
		{Key: testutil.Prefix6Key(netip.MustParsePrefix("2001:db8::/32")), Record: record("中国", "")},
	}))

	rec, err := db.LookupIP(netip.MustParseAddr("1.2.3.4"))
	require.NoError(t, err, "unsupported family must not error")
	assert.Nil(t, rec, "unsupported family must yield no answer")
}

func TestLookupNotLoaded(t *testing.T) {
	t.Parallel()

	_, err := New().LookupIP(netip.MustParseAddr("2001:db8::1"))
	assert.ErrorIs(t, err, geo.ErrNotLoaded)
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return path
	}

	err := New().LoadFromFile(write("tiny.db", []byte("IP")))
	assert.ErrorIs(t, err, geo.ErrParse, "tiny file must be rejected")

	err = New().LoadFromFile(write("magic.db", []byte("NOPE0000000000000000000000000000")))
	assert.ErrorIs(t, err, geo.ErrParse, "bad magic must be rejected")

	short := make([]byte, 20)
	copy(short, "IPDB")
	err = New().LoadFromFile(write("short.db", short))
	assert.ErrorIs(t, err, geo.ErrParse, "short header must be rejected")

	// Valid header fields but an index region larger than the file.
	truncated := testutil.BuildV6([]testutil.Range6Entry{
		{Key: 1, Record: record("x", "")},
	})
	truncated = truncated[:26]
	err = New().LoadFromFile(write("truncated.db", truncated))
	assert.ErrorIs(t, err, geo.ErrCorrupted, "truncated index must be rejected")
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	db := New()
	assert.Equal(t, "zxipv6wry", db.Name())
	assert.Equal(t, geo.KindZXIPv6, db.Kind())
	assert.False(t, db.SupportsIPv4())
	assert.True(t, db.SupportsIPv6())
	assert.False(t, db.SupportsCDN())

	rec, err := db.LookupCDN("example.com")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
