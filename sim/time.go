package sim

import "time"

// SimulationTime counts nanoseconds since the start of the simulation. It
// is the single authoritative notion of "now": all threads read it, only
// the scheduler writes it, and it never decreases.
type SimulationTime int64

// Units of simulation time.
const (
	Nanosecond  SimulationTime = 1
	Microsecond                = 1000 * Nanosecond
	Millisecond                = 1000 * Microsecond
	Second                     = 1000 * Millisecond
)

// SimTimeMax is the largest representable simulation time. It doubles as
// the "no pending work" sentinel when scanning task queues.
const SimTimeMax = SimulationTime(1<<63 - 1)

// Duration converts a simulation time span to a wall-clock duration of the
// same nanosecond count.
func (t SimulationTime) Duration() time.Duration {
	return time.Duration(t)
}

// FromDuration converts a wall-clock duration to simulation time.
func FromDuration(d time.Duration) SimulationTime {
	return SimulationTime(d.Nanoseconds())
}

// EmulatedTime is the wall-clock-like timestamp presented to simulated
// processes, in nanoseconds since the Unix epoch. Simulated clocks start at
// 2000-01-01T00:00:00Z and advance in lockstep with SimulationTime.
type EmulatedTime int64

// emulatedEpochOffset places simulation time zero at 2000-01-01 UTC.
const emulatedEpochOffset EmulatedTime = 946684800 * EmulatedTime(Second)

// ToEmulatedTime maps a simulation time to the timestamp a simulated
// process would read from its clock. The mapping is strictly monotonic.
func ToEmulatedTime(t SimulationTime) EmulatedTime {
	return emulatedEpochOffset + EmulatedTime(t)
}

// AsTime returns the emulated timestamp as a time.Time in UTC.
func (t EmulatedTime) AsTime() time.Time {
	return time.Unix(0, int64(t)).UTC()
}
