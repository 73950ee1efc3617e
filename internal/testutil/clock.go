package testutil

import (
	"sync"
	"time"
)

// FixedDate is the date deterministic worlds are stamped with.
var FixedDate = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

// DeterministicClock is a wall clock that only moves when told to.
//
// Worlds read the time once, when they are created, to stamp document
// dates. Tests pass clock.Now so that stamp is reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewDeterministicClock creates a clock reading FixedDate.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{now: FixedDate}
}

// Now returns the current reading.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *DeterministicClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset moves the clock back to FixedDate.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = FixedDate
}

// FixedNow returns FixedDate. It fits world.WithClock directly.
func FixedNow() time.Time {
	return FixedDate
}
