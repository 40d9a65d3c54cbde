package rules

import (
	"sync"
	"time"
)

// InMemoryRulesCache is the in-process RulesCache implementation.
// Thread-safe for concurrent access.
type InMemoryRulesCache struct {
	rules    []*BusinessRule
	cachedAt time.Time
	config   CacheConfig
	valid    bool
	mu       sync.RWMutex
}

// NewInMemoryRulesCache creates a new in-memory rules cache.
func NewInMemoryRulesCache(config CacheConfig) *InMemoryRulesCache {
	return &InMemoryRulesCache{config: config}
}

// Get returns a copy of the cached catalog, or nil if the cache is invalid
// or past its TTL. The copy keeps callers from mutating the cached slice.
func (c *InMemoryRulesCache) Get() []*BusinessRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return nil
	}
	if c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL {
		return nil
	}

	rulesCopy := make([]*BusinessRule, len(c.rules))
	copy(rulesCopy, c.rules)
	return rulesCopy
}

// Set stores a copy of the catalog.
func (c *InMemoryRulesCache) Set(rules []*BusinessRule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rules = make([]*BusinessRule, len(rules))
	copy(c.rules, rules)
	c.cachedAt = time.Now()
	c.valid = true
}

// Invalidate clears the cache.
func (c *InMemoryRulesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.rules = nil
}

// IsValid reports whether the cache holds unexpired data.
func (c *InMemoryRulesCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return false
	}
	if c.config.TTL > 0 {
		return time.Since(c.cachedAt) <= c.config.TTL
	}
	return true
}
