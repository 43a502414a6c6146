package sim

import (
	"fmt"
	"runtime"
	"time"
)

// Config carries the engine options fixed at bootstrap. It is read-only
// once a scheduler has been created from it.
type Config struct {
	// Parallelism is the number of worker threads. Zero means one worker
	// per available CPU.
	Parallelism int `yaml:"parallelism"`

	// StopTime is the simulated time at which the run ends. Tasks due
	// after StopTime are rejected at scheduling time.
	StopTime SimulationTime `yaml:"stop_time"`

	// BootstrapEnd is the simulated time at which the bootstrap phase
	// ends. During bootstrap the clock advances by BootstrapJump per round
	// instead of the min-time-jump bound, since hosts may still be booting
	// and the bound cannot yet be trusted.
	BootstrapEnd SimulationTime `yaml:"bootstrap_end"`

	// BootstrapJump is the conservative per-round clock step used while
	// the bootstrap phase is active.
	BootstrapJump SimulationTime `yaml:"bootstrap_jump"`

	// MinTimeJump is the time-jump bound used until any cross-host path
	// latency has been observed.
	MinTimeJump SimulationTime `yaml:"min_time_jump"`

	// BarrierTimeout is the wall-clock time the scheduler waits for all
	// workers to reach a round barrier before declaring the run dead.
	// Zero disables the watchdog.
	BarrierTimeout time.Duration `yaml:"barrier_timeout"`

	// PinThreads locks each worker goroutine to an OS thread for the
	// run's duration.
	PinThreads bool `yaml:"pin_threads"`
}

// DefaultConfig returns the options used when a scenario does not override
// them.
func DefaultConfig() Config {
	return Config{
		Parallelism:    runtime.GOMAXPROCS(0),
		StopTime:       60 * Second,
		BootstrapEnd:   0,
		BootstrapJump:  1 * Millisecond,
		MinTimeJump:    10 * Millisecond,
		BarrierTimeout: 5 * time.Minute,
	}
}

// Validate reports the first invalid option, or nil.
func (c Config) Validate() error {
	if c.Parallelism < 0 {
		return fmt.Errorf("config: parallelism must not be negative")
	}

	if c.StopTime <= 0 {
		return fmt.Errorf("config: stop time must be positive")
	}

	if c.BootstrapEnd < 0 || c.BootstrapEnd > c.StopTime {
		return fmt.Errorf("config: bootstrap end must be within the run")
	}

	if c.BootstrapEnd > 0 && c.BootstrapJump <= 0 {
		return fmt.Errorf("config: bootstrap jump must be positive")
	}

	if c.MinTimeJump <= 0 {
		return fmt.Errorf("config: min time jump must be positive")
	}

	return nil
}

func (c Config) parallelism() int {
	if c.Parallelism == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Parallelism
}
