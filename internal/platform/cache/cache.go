// Package cache provides a small expiring LRU for read-mostly reference data
// such as doctor schedules. It must never sit in front of live booking
// counts; those are always read transactionally from the primary store.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Cache[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

// New creates a cache holding up to size entries, each expiring ttl after it
// was added. A size of 0 disables bounding (not used here but supported by
// the underlying LRU).
func New[K comparable, V any](size int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{lru: expirable.NewLRU[K, V](size, nil, ttl)}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

func (c *Cache[K, V]) Add(key K, value V) {
	c.lru.Add(key, value)
}

func (c *Cache[K, V]) Remove(key K) {
	c.lru.Remove(key)
}

func (c *Cache[K, V]) Purge() {
	c.lru.Purge()
}
