package provision

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whereip/whereip/config"
	"github.com/whereip/whereip/geo"
)

func testConfig(t *testing.T, sources ...string) *config.Config {
	t.Helper()

	t.Setenv("WHEREIP_HOME", t.TempDir())
	return config.MakeTestConfig(config.Store{
		Databases: []config.DatabaseInfo{
			{Name: "testdb", Format: "qqwry", File: "testdb.dat", Sources: sources},
		},
	})
}

func TestFetchAndPlace(t *testing.T) {
	payload := []byte("synthetic database payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL+"/testdb.dat")
	err := New(cfg).FetchAndPlace(context.Background(), "testdb")
	require.NoError(t, err, "download must succeed")

	placed, err := os.ReadFile(cfg.DatabasePath("testdb"))
	require.NoError(t, err)
	assert.Equal(t, payload, placed)
}

func TestFetchAndPlaceGzip(t *testing.T) {
	payload := []byte("compressed database payload")
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	_, err := gz.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(compressed.Bytes())
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL+"/testdb.dat.gz")
	err = New(cfg).FetchAndPlace(context.Background(), "testdb")
	require.NoError(t, err, "gzip download must succeed")

	placed, err := os.ReadFile(cfg.DatabasePath("testdb"))
	require.NoError(t, err)
	assert.Equal(t, payload, placed, "payload must be decompressed before placement")
}

func TestFetchFallsBackToNextSource(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer failing.Close()
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fallback payload"))
	}))
	defer working.Close()

	cfg := testConfig(t, failing.URL+"/a.dat", working.URL+"/b.dat")
	err := New(cfg).FetchAndPlace(context.Background(), "testdb")
	require.NoError(t, err, "second source must be tried")

	placed, err := os.ReadFile(cfg.DatabasePath("testdb"))
	require.NoError(t, err)
	assert.Equal(t, []byte("fallback payload"), placed)
}

func TestFetchAllSourcesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL+"/a.dat", srv.URL+"/b.dat")
	err := New(cfg).FetchAndPlace(context.Background(), "testdb")
	assert.ErrorIs(t, err, geo.ErrProvision)

	_, statErr := os.Stat(cfg.DatabasePath("testdb"))
	assert.True(t, os.IsNotExist(statErr), "no file must be placed on failure")
}

func TestFetchNoSources(t *testing.T) {
	cfg := testConfig(t)
	err := New(cfg).FetchAndPlace(context.Background(), "testdb")
	assert.ErrorIs(t, err, geo.ErrProvision)
}

func TestFetchUnknownName(t *testing.T) {
	cfg := testConfig(t)
	err := New(cfg).FetchAndPlace(context.Background(), "never-configured")
	assert.ErrorIs(t, err, geo.ErrNotFound)
}

func TestTempFilesAreCleanedUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL+"/testdb.dat")
	require.NoError(t, New(cfg).FetchAndPlace(context.Background(), "testdb"))

	entries, err := os.ReadDir(filepath.Dir(cfg.DatabasePath("testdb")))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp-", "temp files must not be left behind")
	}
}
