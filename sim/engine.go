package sim

import (
	"time"

	"github.com/umbralab/umbra/routing"
)

// TimeTeller can be used to get the current simulated time.
type TimeTeller interface {
	CurrentTime() SimulationTime
}

// An Engine is the unit that keeps a simulation running. The Scheduler is
// the only engine in this module; the interface exists so the monitor and
// the recorder do not depend on the concrete type.
type Engine interface {
	Hookable
	TimeTeller

	// Run drives rounds until no host has pending work or the stop time is
	// reached.
	Run() error

	// Pause prevents the engine from starting the next round until
	// Continue is called. The round in flight still completes.
	Pause()

	// Continue resumes a paused engine.
	Continue()

	// Round returns the number of completed rounds.
	Round() uint64

	// RegisterSimulationEndHandler registers a handler that performs some
	// actions after the simulation finishes.
	RegisterSimulationEndHandler(handler SimulationEndHandler)
}

// A SimulationEndHandler is called after the simulation ends.
type SimulationEndHandler interface {
	Handle(now SimulationTime)
}

// Topology is the read-only latency/bandwidth contract the kernel queries.
// *routing.Topology is the production implementation.
type Topology interface {
	// Latency returns the path latency between two hosts, 0 on a miss.
	Latency(src, dst routing.NodeID) time.Duration

	// BandwidthUp returns a host's uplink bandwidth in bytes per second,
	// 0 for unknown or unlimited.
	BandwidthUp(id routing.NodeID, ip string) uint64

	// BandwidthDown returns a host's downlink bandwidth in bytes per
	// second, 0 for unknown or unlimited.
	BandwidthDown(id routing.NodeID, ip string) uint64

	// MinimumLatency returns the smallest link latency in the graph.
	MinimumLatency() time.Duration
}

// AddressBook is the read-only name/IP resolution contract the kernel
// queries. *routing.DNS is the production implementation. Lookups return
// nil on a miss; misses are never fatal.
type AddressBook interface {
	ResolveIP(ip string) *routing.Address
	ResolveName(name string) *routing.Address
}
