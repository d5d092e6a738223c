// Package registry manages lazily loaded database handles and caches
// query results. Handles are created and loaded on first use, keyed by
// their canonical logical name. Missing database files are provisioned
// through the configured provisioner when sources are available.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/netip"
	"os"
	"strings"
	"sync"

	"github.com/whereip/whereip/config"
	"github.com/whereip/whereip/geo"
)

// Provisioner fetches a missing database file and places it at the
// path the registry loads it from.
type Provisioner interface {
	FetchAndPlace(ctx context.Context, name string) error
}

// Registry resolves queries through the configured databases.
type Registry struct {
	config      *config.Config
	provisioner Provisioner

	databases     map[string]geo.Database
	databasesLock sync.RWMutex

	// cache holds one entry per query, including negative answers.
	// Loading a database twice is harmless, so concurrent first
	// lookups may race without a guard.
	cache     map[string]cacheEntry
	cacheLock sync.RWMutex
}

type cacheEntry struct {
	record *geo.Record
	cdn    *geo.CDNRecord
}

// New returns a registry using the given config.
// The provisioner may be nil to disable automatic downloads.
func New(c *config.Config, p Provisioner) *Registry {
	return &Registry{
		config:      c,
		provisioner: p,
		databases:   make(map[string]geo.Database),
		cache:       make(map[string]cacheEntry),
	}
}

// ResolveIP looks up the address in the database configured for its
// family. A nil record with a nil error means no answer.
func (r *Registry) ResolveIP(ctx context.Context, ip netip.Addr) (*geo.Record, error) {
	key := "ip:" + ip.String()
	if entry, ok := r.cached(key); ok {
		return entry.record, nil
	}

	name := r.config.Lookup.IPv6
	if ip.Is4() {
		name = r.config.Lookup.IPv4
	}
	db, err := r.EnsureLoaded(ctx, name)
	if err != nil {
		return nil, err
	}

	record, err := db.LookupIP(ip)
	if err != nil {
		return nil, err
	}
	r.store(key, cacheEntry{record: record})
	return record, nil
}

// ResolveCDN looks up the domain in the configured CDN database.
// A nil record with a nil error means no answer.
func (r *Registry) ResolveCDN(ctx context.Context, domain string) (*geo.CDNRecord, error) {
	key := "cdn:" + strings.ToLower(domain)
	if entry, ok := r.cached(key); ok {
		return entry.cdn, nil
	}

	db, err := r.EnsureLoaded(ctx, r.config.Lookup.CDN)
	if err != nil {
		return nil, err
	}

	record, err := db.LookupCDN(domain)
	if err != nil {
		return nil, err
	}
	r.store(key, cacheEntry{cdn: record})
	return record, nil
}

// EnsureLoaded returns the loaded handle for the given logical name or
// alias, creating and loading it first if needed. Missing database
// files are provisioned when possible.
func (r *Registry) EnsureLoaded(ctx context.Context, name string) (geo.Database, error) {
	info, err := r.config.Database(name)
	if err != nil {
		return nil, err
	}

	r.databasesLock.RLock()
	db, ok := r.databases[info.Name]
	r.databasesLock.RUnlock()
	if ok {
		return db, nil
	}

	db, err = newHandle(info)
	if err != nil {
		return nil, err
	}

	path := r.config.DatabasePath(info.Name)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if r.provisioner == nil || len(info.Sources) == 0 {
			return nil, fmt.Errorf(
				"%w: database file %s is missing and cannot be fetched, place it manually",
				geo.ErrNotFound, path,
			)
		}
		slog.Warn("database file missing, fetching", "name", info.Name, "path", path)
		if err := r.provisioner.FetchAndPlace(ctx, info.Name); err != nil {
			return nil, err
		}
	}

	if err := db.LoadFromFile(path); err != nil {
		return nil, fmt.Errorf("load database %s: %w", info.Name, err)
	}

	r.databasesLock.Lock()
	r.databases[info.Name] = db
	r.databasesLock.Unlock()
	return db, nil
}

// ClearCache drops all cached query results.
func (r *Registry) ClearCache() {
	r.cacheLock.Lock()
	defer r.cacheLock.Unlock()

	clear(r.cache)
}

// CacheStats returns the number of loaded databases and cached query
// results.
func (r *Registry) CacheStats() (loaded, cached int) {
	r.databasesLock.RLock()
	loaded = len(r.databases)
	r.databasesLock.RUnlock()

	r.cacheLock.RLock()
	cached = len(r.cache)
	r.cacheLock.RUnlock()
	return loaded, cached
}

func (r *Registry) cached(key string) (cacheEntry, bool) {
	r.cacheLock.RLock()
	defer r.cacheLock.RUnlock()

	entry, ok := r.cache[key]
	return entry, ok
}

func (r *Registry) store(key string, entry cacheEntry) {
	r.cacheLock.Lock()
	defer r.cacheLock.Unlock()

	r.cache[key] = entry
}
