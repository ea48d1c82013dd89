package cache

import (
	"container/list"
	"sync"
	"time"
)

// Clock supplies the current time to the cache.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type entry[K comparable, V any] struct {
	key      K
	value    V
	expireAt time.Time
}

// TTL is a bounded LRU map whose entries expire a fixed duration after insertion.
// Expiry is checked lazily on access; there is no background sweeper.
type TTL[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    Clock
	ll       *list.List // front = most recently used
	items    map[K]*list.Element
}

// NewTTL creates a cache holding at most capacity entries for ttl each.
// A nil clock uses the wall clock.
func NewTTL[K comparable, V any](capacity int, ttl time.Duration, clock Clock) *TTL[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &TTL[K, V]{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
		ll:       list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// Get returns the value for k if present and unexpired. Expired entries are dropped.
func (c *TTL[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[k]
	if !ok {
		var zero V
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if !c.clock.Now().Before(e.expireAt) {
		c.removeElement(el)
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	return e.value, true
}

// Set inserts or replaces k with a fresh expiry. At capacity, expired
// entries are purged first, then the least recently used one is evicted.
func (c *TTL[K, V]) Set(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if el, ok := c.items[k]; ok {
		e := el.Value.(*entry[K, V])
		e.value = v
		e.expireAt = now.Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.purgeExpired(now)
	}
	for c.ll.Len() >= c.capacity {
		c.removeElement(c.ll.Back())
	}

	el := c.ll.PushFront(&entry[K, V]{key: k, value: v, expireAt: now.Add(c.ttl)})
	c.items[k] = el
}

// remove drops k if present.
func (c *TTL[K, V]) remove(k K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[k]; ok {
		c.removeElement(el)
	}
}

// Len returns the number of stored entries, expired or not.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Must be called with lock held
func (c *TTL[K, V]) purgeExpired(now time.Time) {
	for el := c.ll.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*entry[K, V]).expireAt) {
			c.removeElement(el)
		}
		el = prev
	}
}

// Must be called with lock held
func (c *TTL[K, V]) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}
