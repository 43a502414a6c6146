// Package counter provides the shared tallies the simulation kernel keeps
// across worker threads: a generic string-keyed counter and an
// allocation/deallocation ledger used for leak detection.
package counter

import (
	"sort"
	"sync"
)

// A Counter is a thread-safe tally keyed by string. Workers keep local
// counters (for syscall counts and similar per-thread statistics) and merge
// them into a shared one at teardown.
type Counter struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{values: make(map[string]int64)}
}

// Add increments a key by n.
func (c *Counter) Add(key string, n int64) {
	c.mu.Lock()
	c.values[key] += n
	c.mu.Unlock()
}

// Get returns the current value of a key.
func (c *Counter) Get(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.values[key]
}

// Merge adds all of other's values into c.
func (c *Counter) Merge(other *Counter) {
	other.mu.Lock()
	snapshot := make(map[string]int64, len(other.values))
	for k, v := range other.values {
		snapshot[k] = v
	}
	other.mu.Unlock()

	c.mu.Lock()
	for k, v := range snapshot {
		c.values[k] += v
	}
	c.mu.Unlock()
}

// Snapshot returns a copy of the counter's contents.
func (c *Counter) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}

	return out
}

// Keys returns the counter's keys in sorted order.
func (c *Counter) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
