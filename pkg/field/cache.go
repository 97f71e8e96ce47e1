package field

import "sync"

// defaultPowerCacheSize bounds the number of cached exponentiation results.
const defaultPowerCacheSize = 1024

type powerKey struct {
	base     uint64
	exponent uint64
	modulus  uint64
}

// powerCache memoizes exponentiation results up to a fixed capacity. It is
// populated lazily and never resized; once full, new results are computed
// but not retained.
type powerCache struct {
	mu       sync.Mutex
	capacity int
	items    map[powerKey]uint64
	hits     uint64
	misses   uint64
}

func newPowerCache(capacity int) *powerCache {
	c := &powerCache{capacity: capacity}
	if capacity > 0 {
		c.items = make(map[powerKey]uint64, capacity)
	}
	return c
}

func (c *powerCache) get(base, exponent, modulus uint64) (uint64, bool) {
	if c.capacity == 0 {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[powerKey{base, exponent, modulus}]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

func (c *powerCache) put(base, exponent, modulus uint64, value uint64) {
	if c.capacity == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) >= c.capacity {
		return
	}
	c.items[powerKey{base, exponent, modulus}] = value
}

func (c *powerCache) counts() (hits, misses uint64) {
	if c.capacity == 0 {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
