package core

import (
	"sync"
)

// runCache memoizes threat-store lookups for the duration of one message's
// analysis. It bounds store access cost when the same value appears many
// times in a message, and is discarded with the run: there is deliberately
// no cross-message lifetime.
type runCache struct {
	mu      sync.Mutex
	entries map[string]ThreatLookup
}

func newRunCache() *runCache {
	return &runCache{entries: make(map[string]ThreatLookup)}
}

func cacheKey(typ IndicatorType, value string) string {
	return string(typ) + "\x00" + value
}

func (c *runCache) get(typ IndicatorType, value string) (ThreatLookup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.entries[cacheKey(typ, value)]
	return l, ok
}

func (c *runCache) put(l ThreatLookup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(l.Type, l.Value)] = l
}
