// Package cache provides the in-process caches used by spendlog: a
// generic bounded TTL cache and a manager that sweeps registered caches
// on an interval.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache is a bounded key-value cache. Entries expire after a fixed TTL
// and, once the cache is full, the least recently touched entry makes room
// for new ones. It backs the per-base exchange-rate cache, where the key
// space is small but must never grow unbounded on attacker-chosen input.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	byKey   map[string]*list.Element
	order   *list.List // front is most recently used
}

type lruEntry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// NewLRUCache builds a cache holding at most maxSize entries, each living
// for ttl after its last Set.
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		byKey:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the live value for key. An expired entry is dropped on
// access and reported as a miss.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.byKey[key]
	if !ok {
		return zero, false
	}

	ent := elem.Value.(*lruEntry[T])
	if time.Now().After(ent.expiresAt) {
		c.remove(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return ent.value, true
}

// Set stores value under key with a fresh TTL, evicting the least
// recently used entry when the cache is full.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent := &lruEntry[T]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, ok := c.byKey[key]; ok {
		elem.Value = ent
		c.order.MoveToFront(elem)
		return
	}

	c.byKey[key] = c.order.PushFront(ent)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// Delete drops key if present.
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.byKey[key]; ok {
		c.remove(elem)
	}
}

// CleanExpired drops every expired entry and returns how many were
// removed. It implements Cleaner.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*lruEntry[T]).expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// Size returns the number of entries currently held, expired or not.
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

func (c *LRUCache[T]) remove(elem *list.Element) {
	delete(c.byKey, elem.Value.(*lruEntry[T]).key)
	c.order.Remove(elem)
}
