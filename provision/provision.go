// Package provision fetches database files from their configured
// sources and places them where the lookup registry expects them.
package provision

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/blake3"

	"github.com/whereip/whereip/config"
	"github.com/whereip/whereip/geo"
)

// Downloader fetches database files over HTTP.
type Downloader struct {
	config *config.Config
	client *http.Client
}

// New returns a downloader using the given config.
func New(c *config.Config) *Downloader {
	return &Downloader{
		config: c,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// FetchAndPlace downloads the database with the given logical name
// from its configured sources, trying them in order, and places the
// file at the path the registry will load it from.
func (d *Downloader) FetchAndPlace(ctx context.Context, name string) error {
	info, err := d.config.Database(name)
	if err != nil {
		return err
	}
	if len(info.Sources) == 0 {
		return fmt.Errorf("%w: no sources configured for %s", geo.ErrProvision, name)
	}
	dest := d.config.DatabasePath(name)

	var lastErr error
	for _, source := range info.Sources {
		if err := d.fetchOne(ctx, source, dest); err != nil {
			slog.Warn("database download failed", "name", name, "source", source, "err", err)
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: all sources failed for %s: %w", geo.ErrProvision, name, lastErr)
}

func (d *Downloader) fetchOne(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	var body io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") || resp.Header.Get("Content-Type") == "application/gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("open gzip stream: %w", err)
		}
		defer func() {
			_ = gz.Close()
		}()
		body = gz
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}

	// Download to a temp file first, then move into place.
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	hasher := blake3.New()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("download to %s: %w", tmp.Name(), err)
	}
	if n == 0 {
		return errors.New("source returned an empty file")
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("move database into place: %w", err)
	}

	slog.Info(
		"database file placed",
		"dest", dest,
		"bytes", n,
		"blake3", hex.EncodeToString(hasher.Sum(nil)),
	)
	return nil
}
