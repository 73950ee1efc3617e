package memo

import "sync"

// Stats counts lookup outcomes over the lifetime of a Cache.
type Stats struct {
	Hits      int
	Unchanged int
	Derived   int
}

// Loads returns the number of lookups that invoked the load function.
func (s Stats) Loads() int {
	return s.Unchanged + s.Derived
}

// Cache maps keys to memoizing cells.
//
// Thread-safety: every method takes the cache mutex, which is held across
// the load and derive callbacks. Callbacks must therefore not call back
// into the same Cache.
type Cache[K comparable, T any] struct {
	mu    sync.Mutex
	slots map[K]*Cell[T]
	stats Stats
}

// New creates an empty Cache.
func New[K comparable, T any]() *Cache[K, T] {
	return &Cache[K, T]{slots: make(map[K]*Cell[T])}
}

// GetOrInit returns the value for key, creating the cell on first use.
// See [Cell.GetOrInit].
func (c *Cache[K, T]) GetOrInit(key K, load LoadFunc, derive DeriveFunc[T]) (T, error) {
	v, _, err := c.Lookup(key, load, derive)
	return v, err
}

// Lookup is like GetOrInit but also reports how the value was served.
func (c *Cache[K, T]) Lookup(key K, load LoadFunc, derive DeriveFunc[T]) (T, Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slots == nil {
		c.slots = make(map[K]*Cell[T])
	}
	cell, ok := c.slots[key]
	if !ok {
		cell = &Cell[T]{}
		c.slots[key] = cell
	}

	v, outcome, err := cell.lookup(load, derive)
	switch outcome {
	case OutcomeHit:
		c.stats.Hits++
	case OutcomeUnchanged:
		c.stats.Unchanged++
	default:
		c.stats.Derived++
	}
	return v, outcome, err
}

// ResetAll clears the accessed flag of every cell. Called once before each
// build; derived values and fingerprints are preserved.
func (c *Cache[K, T]) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cell := range c.slots {
		cell.Reset()
	}
}

// Reset clears the accessed flag of every cell whose key matches and
// returns how many cells matched.
func (c *Cache[K, T]) Reset(match func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, cell := range c.slots {
		if match(key) {
			cell.Reset()
			n++
		}
	}
	return n
}

// Len returns the number of cells.
func (c *Cache[K, T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Stats returns a snapshot of the lookup counters.
func (c *Cache[K, T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Fingerprint returns the fingerprint of key's last load.
func (c *Cache[K, T]) Fingerprint(key K) (Fingerprint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cell, ok := c.slots[key]
	if !ok {
		return Fingerprint{}, false
	}
	return cell.fingerprint, true
}

// Accessed reports whether key was used in the current build.
func (c *Cache[K, T]) Accessed(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cell, ok := c.slots[key]
	return ok && cell.accessed
}
