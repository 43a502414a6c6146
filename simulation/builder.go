// Package simulation assembles the scheduler, the routing tables, the data
// recorder, and the monitor into one runnable simulation.
package simulation

import (
	"github.com/rs/xid"
	"github.com/umbralab/umbra/datarecording"
	"github.com/umbralab/umbra/monitoring"
	"github.com/umbralab/umbra/routing"
	"github.com/umbralab/umbra/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	config         sim.Config
	monitorOn      bool
	monitorPort    int
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		config:    sim.DefaultConfig(),
		monitorOn: true,
	}
}

// WithConfig replaces the whole engine configuration.
func (b Builder) WithConfig(config sim.Config) Builder {
	b.config = config
	return b
}

// WithParallelism sets the number of worker threads.
func (b Builder) WithParallelism(n int) Builder {
	b.config.Parallelism = n
	return b
}

// WithStopTime sets the simulated time at which the run ends.
func (b Builder) WithStopTime(t sim.SimulationTime) Builder {
	b.config.StopTime = t
	return b
}

// WithBootstrapEnd sets the simulated time at which the bootstrap phase
// ends.
func (b Builder) WithBootstrapEnd(t sim.SimulationTime) Builder {
	b.config.BootstrapEnd = t
	return b
}

// WithPinnedThreads locks each worker goroutine to an OS thread.
func (b Builder) WithPinnedThreads() Builder {
	b.config.PinThreads = true
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if err := b.config.Validate(); err != nil {
		panic(err)
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		config:        b.config,
		hostNameIndex: make(map[string]int),
	}

	s.id = xid.New().String()

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "umbra_sim_" + s.id
	}
	s.dataRecorder = datarecording.New(outputPath)

	s.dns = routing.NewDNS()
	s.topology = routing.NewTopology()

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
	}

	return s
}
