// Package cache stores rendered artifacts keyed by content hash.
//
// Rendering a catalogue is cheap, but fetching a remote dataset and
// rasterising Graphviz output are not. The pipeline keys each artifact by
// the hash of the dataset bytes plus the render options, so an unchanged
// dataset never renders twice.
//
// Implementations:
//   - [FileCache]: JSON entries under the user cache directory
//   - [NullCache]: never stores anything (--no-cache)
//
// Wrap any implementation with [Instrument] to report hits and misses to
// the observability hooks.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	TTLDataset  = time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with optional per-entry expiry.
type Cache interface {
	// Get returns the stored data and true, or false on a miss.
	// Expired and corrupt entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes an entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// DatasetKey is the key of a fetched dataset document.
	DatasetKey(source string) string

	// ArtifactKey is the key of one rendered artifact.
	ArtifactKey(datasetHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options an artifact depends on.
type ArtifactKeyOpts struct {
	Format string
	Prefs  any // Preference flags in effect
	Theme  string
	Module string
}

// DefaultKeyer produces "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) DatasetKey(source string) string {
	return hashKey("dataset", source)
}

func (DefaultKeyer) ArtifactKey(datasetHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", datasetHash, opts.Format, opts.Prefs, opts.Theme, opts.Module)
}
