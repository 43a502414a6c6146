package routing

import (
	"container/heap"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// A Topology is a weighted graph over simulated hosts. Edges carry a
// one-way propagation latency; nodes carry the host's up/down bandwidth in
// bytes per second. The topology is built once, frozen, and then queried
// concurrently by all worker threads without locking.
type Topology struct {
	frozen bool

	nodes map[NodeID]*node
	links map[NodeID]map[NodeID]time.Duration

	// All-pairs path latencies, filled in by Freeze.
	paths map[NodeID]map[NodeID]time.Duration

	minLatency time.Duration
}

type node struct {
	addr   *Address
	bwUp   uint64
	bwDown uint64
}

// NewTopology creates an empty topology.
func NewTopology() *Topology {
	return &Topology{
		nodes: make(map[NodeID]*node),
		links: make(map[NodeID]map[NodeID]time.Duration),
	}
}

// AddNode registers a host with its bandwidth limits. Bandwidths are in
// bytes per second; zero means unlimited.
func (t *Topology) AddNode(addr *Address, bwUp, bwDown uint64) error {
	if t.frozen {
		return fmt.Errorf("topology: graph is frozen")
	}

	if _, taken := t.nodes[addr.ID]; taken {
		return fmt.Errorf("topology: node %s already added", addr)
	}

	t.nodes[addr.ID] = &node{addr: addr, bwUp: bwUp, bwDown: bwDown}
	t.links[addr.ID] = make(map[NodeID]time.Duration)

	return nil
}

// AddLink connects two hosts with a symmetric propagation latency.
func (t *Topology) AddLink(a, b NodeID, latency time.Duration) error {
	if t.frozen {
		return fmt.Errorf("topology: graph is frozen")
	}

	if latency <= 0 {
		return fmt.Errorf("topology: link latency must be positive")
	}

	if _, ok := t.nodes[a]; !ok {
		return fmt.Errorf("topology: unknown node %d", a)
	}

	if _, ok := t.nodes[b]; !ok {
		return fmt.Errorf("topology: unknown node %d", b)
	}

	t.links[a][b] = latency
	t.links[b][a] = latency

	return nil
}

// Freeze computes all-pairs path latencies and marks the graph read-only.
// It must be called before the topology is shared across threads.
func (t *Topology) Freeze() {
	if t.frozen {
		return
	}

	t.paths = make(map[NodeID]map[NodeID]time.Duration, len(t.nodes))
	t.minLatency = time.Duration(math.MaxInt64)

	for id := range t.nodes {
		t.paths[id] = t.shortestPathsFrom(id)
	}

	for _, direct := range t.links {
		for _, l := range direct {
			if l < t.minLatency {
				t.minLatency = l
			}
		}
	}

	t.frozen = true

	logrus.WithFields(logrus.Fields{
		"nodes":       len(t.nodes),
		"min_latency": t.minLatency,
	}).Debug("topology: frozen")
}

// Latency returns the path latency between two hosts, or 0 if no path
// exists. Callers treat 0 as a miss.
func (t *Topology) Latency(src, dst NodeID) time.Duration {
	row, ok := t.paths[src]
	if !ok {
		return 0
	}

	return row[dst]
}

// BandwidthUp returns the uplink bandwidth of a host in bytes per second.
// Zero means unknown host or unlimited bandwidth.
func (t *Topology) BandwidthUp(id NodeID, _ string) uint64 {
	n, ok := t.nodes[id]
	if !ok {
		return 0
	}

	return n.bwUp
}

// BandwidthDown returns the downlink bandwidth of a host in bytes per
// second. Zero means unknown host or unlimited bandwidth.
func (t *Topology) BandwidthDown(id NodeID, _ string) uint64 {
	n, ok := t.nodes[id]
	if !ok {
		return 0
	}

	return n.bwDown
}

// MinimumLatency returns the smallest link latency in the graph. It bounds
// how soon any cross-host event can take effect.
func (t *Topology) MinimumLatency() time.Duration {
	return t.minLatency
}

// shortestPathsFrom runs Dijkstra from one source node.
func (t *Topology) shortestPathsFrom(src NodeID) map[NodeID]time.Duration {
	dist := map[NodeID]time.Duration{src: 0}
	visited := make(map[NodeID]bool)

	pq := &latencyHeap{{id: src, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(latencyHeapEntry)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		for next, l := range t.links[cur.id] {
			alt := cur.dist + l
			if d, seen := dist[next]; !seen || alt < d {
				dist[next] = alt
				heap.Push(pq, latencyHeapEntry{id: next, dist: alt})
			}
		}
	}

	delete(dist, src)

	return dist
}

type latencyHeapEntry struct {
	id   NodeID
	dist time.Duration
}

type latencyHeap []latencyHeapEntry

func (h latencyHeap) Len() int            { return len(h) }
func (h latencyHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h latencyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *latencyHeap) Push(x interface{}) { *h = append(*h, x.(latencyHeapEntry)) }

func (h *latencyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[0 : n-1]
	return e
}
