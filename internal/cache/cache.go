// Package cache keeps decoded resources in memory so repeated queries
// against a hot name skip the chain lookup and re-decode. Resource TTL
// is constant, so entries carry no expiry of their own; eviction is
// purely LRU.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/handshake-labs/hnsd/internal/resource"
)

// resourceCache is an LRU of decoded resources keyed by zone name.
type resourceCache struct {
	lru *lru.Cache[string, *resource.Resource]
}

// New returns a resource cache of the given size.
func New(size int) (*resourceCache, error) {
	cache, err := lru.New[string, *resource.Resource](size)
	if err != nil {
		return nil, err
	}
	return &resourceCache{lru: cache}, nil
}

// Get retrieves the resource for a name if present.
func (c *resourceCache) Get(name string) (*resource.Resource, bool) {
	return c.lru.Get(name)
}

// Set stores the resource for a name, evicting the least recently used
// entry when full.
func (c *resourceCache) Set(name string, res *resource.Resource) {
	c.lru.Add(name, res)
}

// Delete removes the entry for a name.
func (c *resourceCache) Delete(name string) {
	c.lru.Remove(name)
}

// Len returns the number of cached resources.
func (c *resourceCache) Len() int {
	return c.lru.Len()
}
