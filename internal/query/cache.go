// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package query maintains the console's in-memory view of backend
// resources: an invalidation-driven cache, repeating pollers that refresh
// the live lists, fetch-through accessors per resource and the optimistic
// decision mutation.
package query

import (
	"sync"

	"github.com/nsa-x/console/internal/metrics"
	"github.com/nsa-x/console/internal/notify"
)

// Cache holds query results keyed by resource and filter encoding. Values
// are treated as immutable once stored: updates replace entries with fresh
// values rather than mutating in place, which is what makes rollback in the
// decision flow a pointer swap.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]interface{}

	// bus receives an update marker per change; nil disables publishing.
	bus *notify.Bus
}

// NewCache builds a cache publishing change markers to bus. bus may be nil.
func NewCache(bus *notify.Bus) *Cache {
	return &Cache{
		entries: make(map[Key]interface{}),
		bus:     bus,
	}
}

// Get returns the cached value for key.
func (c *Cache) Get(key Key) (interface{}, bool) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		metrics.CacheHits.WithLabelValues(key.Resource()).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(key.Resource()).Inc()
	}
	return value, ok
}

// Set stores value under key and publishes an update marker.
func (c *Cache) Set(key Key, value interface{}) {
	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
	c.publish(key)
}

// Update applies fn to the current entry under the write lock. fn receives
// the existing value (nil, false when absent) and returns the replacement;
// returning ok=false leaves the cache unchanged.
func (c *Cache) Update(key Key, fn func(old interface{}, exists bool) (interface{}, bool)) {
	c.mu.Lock()
	old, exists := c.entries[key]
	value, ok := fn(old, exists)
	if ok {
		c.entries[key] = value
	}
	c.mu.Unlock()
	if ok {
		c.publish(key)
	}
}

// Invalidate drops one entry.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if existed {
		metrics.CacheInvalidations.WithLabelValues(key.Resource()).Inc()
		c.publish(key)
	}
}

// InvalidatePrefix drops every entry under prefix.
func (c *Cache) InvalidatePrefix(prefix Key) {
	c.mu.Lock()
	var dropped []Key
	for key := range c.entries {
		if key.HasPrefix(prefix) {
			delete(c.entries, key)
			dropped = append(dropped, key)
		}
	}
	c.mu.Unlock()

	for _, key := range dropped {
		metrics.CacheInvalidations.WithLabelValues(key.Resource()).Inc()
		c.publish(key)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) publish(key Key) {
	if c.bus == nil {
		return
	}
	c.bus.PublishQueryUpdate(notify.QueryUpdate{
		Key:      string(key),
		Resource: key.Resource(),
	})
}
