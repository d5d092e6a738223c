package geo

import "errors"

// Lookup and loading errors.
var (
	// ErrNotFound is returned when a logical database name is not known.
	ErrNotFound = errors.New("database not found")

	// ErrNotLoaded is returned when a lookup hits an unloaded handle.
	ErrNotLoaded = errors.New("database not loaded")

	// ErrParse is returned when a database file fails structural validation
	// or a read runs outside the file bounds.
	ErrParse = errors.New("database parse error")

	// ErrCorrupted is returned when a database file is structurally
	// inconsistent, eg. a truncated or inverted index region.
	ErrCorrupted = errors.New("database corrupted")

	// ErrProvision is returned when fetching a database file fails.
	ErrProvision = errors.New("database provisioning failed")
)
