package counter

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// CountDirection tells whether an object count records an allocation or a
// deallocation.
type CountDirection int

// The two directions of an object count.
const (
	CountAlloc CountDirection = iota
	CountDealloc
)

// A Leak describes one object type whose allocation and deallocation counts
// do not match at the end of a run.
type Leak struct {
	Type    string
	Alloc   int64
	Dealloc int64
}

// Outstanding returns the number of objects never freed. Negative values
// indicate double frees.
func (l Leak) Outstanding() int64 {
	return l.Alloc - l.Dealloc
}

// An ObjectCounter tracks allocations and deallocations per object type
// name. Every worker thread increments it; at the end of a run any type
// whose counts disagree is reported as a leak.
type ObjectCounter struct {
	mu      sync.Mutex
	tallies map[string]*objectTally
}

type objectTally struct {
	alloc   int64
	dealloc int64
}

// NewObjectCounter creates an empty ledger.
func NewObjectCounter() *ObjectCounter {
	return &ObjectCounter{tallies: make(map[string]*objectTally)}
}

// Count increments the tally for an object type in the given direction.
func (c *ObjectCounter) Count(objectType string, dir CountDirection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tallies[objectType]
	if !ok {
		t = &objectTally{}
		c.tallies[objectType] = t
	}

	if dir == CountAlloc {
		t.alloc++
	} else {
		t.dealloc++
	}
}

// IncrementAlloc records one allocation of the named object type. It must
// be paired with a matching IncrementDealloc, or the run's leak report will
// flag the type.
func (c *ObjectCounter) IncrementAlloc(objectType string) {
	c.Count(objectType, CountAlloc)
}

// IncrementDealloc records one deallocation of the named object type.
func (c *ObjectCounter) IncrementDealloc(objectType string) {
	c.Count(objectType, CountDealloc)
}

// Counts returns the (alloc, dealloc) pair for one object type.
func (c *ObjectCounter) Counts(objectType string) (alloc, dealloc int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tallies[objectType]
	if !ok {
		return 0, 0
	}

	return t.alloc, t.dealloc
}

// Merge folds another ledger into this one.
func (c *ObjectCounter) Merge(other *ObjectCounter) {
	other.mu.Lock()
	snapshot := make(map[string]objectTally, len(other.tallies))
	for k, t := range other.tallies {
		snapshot[k] = *t
	}
	other.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, s := range snapshot {
		t, ok := c.tallies[k]
		if !ok {
			t = &objectTally{}
			c.tallies[k] = t
		}
		t.alloc += s.alloc
		t.dealloc += s.dealloc
	}
}

// Leaks returns all object types whose counts disagree, sorted by type
// name.
func (c *ObjectCounter) Leaks() []Leak {
	c.mu.Lock()
	defer c.mu.Unlock()

	var leaks []Leak
	for name, t := range c.tallies {
		if t.alloc != t.dealloc {
			leaks = append(leaks, Leak{
				Type:    name,
				Alloc:   t.alloc,
				Dealloc: t.dealloc,
			})
		}
	}

	sort.Slice(leaks, func(i, j int) bool {
		return leaks[i].Type < leaks[j].Type
	})

	return leaks
}

// ReportLeaks logs a warning for every mismatched tally. It returns the
// number of leaked types so callers can surface it in their own summary.
func (c *ObjectCounter) ReportLeaks() int {
	leaks := c.Leaks()

	for _, l := range leaks {
		logrus.WithFields(logrus.Fields{
			"type":        l.Type,
			"alloc":       l.Alloc,
			"dealloc":     l.Dealloc,
			"outstanding": l.Outstanding(),
		}).Warn("memory leak detected")
	}

	return len(leaks)
}
