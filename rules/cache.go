package rules

import "time"

// RulesCache abstracts caching of the rule catalog between store reads,
// so an evaluation pass does not hit the database per invocation.
type RulesCache interface {
	// Get retrieves the cached catalog, nil on miss or expiry
	Get() []*BusinessRule

	// Set stores the catalog
	Set(rules []*BusinessRule)

	// Invalidate clears the cache, forcing a store read on next Get
	Invalidate()

	// IsValid reports whether the cache holds unexpired data
	IsValid() bool
}

// CacheConfig holds configuration for cache behavior.
type CacheConfig struct {
	// TTL is the time-to-live for the cached catalog.
	// Zero means no expiration (manual invalidation only).
	TTL time.Duration
}

// DefaultCacheConfig returns the default: no TTL, invalidation happens only
// on catalog mutation.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}
