// Package cache provides the routed-artifact cache.
//
// Routing the same program onto the same device is deterministic, so results
// are content-addressed: the cache key covers the device description, the
// program source, and the register configuration. Backends:
//
//   - [FileCache]: file-based cache for CLI usage
//   - [RedisCache]: Redis-backed cache for the API server
//   - [NullCache]: no-op cache for tests or --no-cache
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second result reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A non-positive TTL stores
	// without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// RouteKeyOpts are the inputs that distinguish one routing run from another.
type RouteKeyOpts struct {
	Register string // register name the router operates on
}

// Keyer derives cache keys for routing artifacts.
type Keyer interface {
	// RouteKey returns the key for a routed program, given the content
	// hashes of the device description and the program source.
	RouteKey(deviceHash, programHash string, opts RouteKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RouteKey implements Keyer.
func (DefaultKeyer) RouteKey(deviceHash, programHash string, opts RouteKeyOpts) string {
	return hashKey("route", deviceHash, programHash, opts.Register)
}

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g.
// per-tenant caches behind the API server.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prefixes all keys of inner.
// A nil inner falls back to the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RouteKey implements Keyer.
func (k *ScopedKeyer) RouteKey(deviceHash, programHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(deviceHash, programHash, opts)
}
