package simulation

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umbralab/umbra/datarecording"
	"github.com/umbralab/umbra/monitoring"
	"github.com/umbralab/umbra/routing"
	"github.com/umbralab/umbra/sim"
)

// A Simulation provides the services required to define and run a
// simulated network.
type Simulation struct {
	id     string
	config sim.Config

	dns      *routing.DNS
	topology *routing.Topology

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	scheduler    *sim.Scheduler

	hosts         []*sim.Host
	hostNameIndex map[string]int

	started bool
}

// ID returns the unique identifier of this run.
func (s *Simulation) ID() string {
	return s.id
}

// DNS returns the name registry used in the simulation.
func (s *Simulation) DNS() *routing.DNS {
	return s.dns
}

// Topology returns the network topology used in the simulation.
func (s *Simulation) Topology() *routing.Topology {
	return s.topology
}

// DataRecorder returns the data recorder used in the simulation.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor used in the simulation, or nil when
// monitoring is disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Scheduler returns the engine driving the simulation. It is nil before
// Run is called.
func (s *Simulation) Scheduler() *sim.Scheduler {
	return s.scheduler
}

// AddHost registers a named host with the given bandwidth limits, in bytes
// per second. Zero bandwidth means unlimited.
func (s *Simulation) AddHost(
	name, ip string,
	bwUp, bwDown uint64,
) (*sim.Host, error) {
	if s.started {
		panic("cannot add a host to a running simulation")
	}

	addr, err := s.dns.Register(name, ip)
	if err != nil {
		return nil, err
	}

	err = s.topology.AddNode(addr, bwUp, bwDown)
	if err != nil {
		return nil, err
	}

	h := sim.NewHost(addr, bwUp, bwDown)
	s.hosts = append(s.hosts, h)
	s.hostNameIndex[name] = len(s.hosts) - 1

	return h, nil
}

// AddLink connects two hosts by name with a symmetric latency.
func (s *Simulation) AddLink(a, b string, latency time.Duration) error {
	addrA := s.dns.ResolveName(a)
	if addrA == nil {
		return fmt.Errorf("unknown host %s", a)
	}

	addrB := s.dns.ResolveName(b)
	if addrB == nil {
		return fmt.Errorf("unknown host %s", b)
	}

	return s.topology.AddLink(addrA.ID, addrB.ID, latency)
}

// HostByName returns a registered host, or nil.
func (s *Simulation) HostByName(name string) *sim.Host {
	i, ok := s.hostNameIndex[name]
	if !ok {
		return nil
	}

	return s.hosts[i]
}

// Hosts returns all registered hosts.
func (s *Simulation) Hosts() []*sim.Host {
	return s.hosts
}

// Run freezes the network, builds the scheduler, and drives the run to
// completion.
func (s *Simulation) Run() error {
	if s.started {
		return fmt.Errorf("simulation already started")
	}
	s.started = true

	s.dns.Freeze()
	s.topology.Freeze()

	scheduler, err := sim.NewScheduler(s.config, s.topology, s.dns)
	if err != nil {
		return err
	}
	s.scheduler = scheduler

	for _, h := range s.hosts {
		s.scheduler.AddHost(h)
	}

	s.recordRounds()

	if s.monitor != nil {
		s.monitor.RegisterEngine(s.scheduler)
		s.monitor.StartServer()
	}

	return s.scheduler.Run()
}

// roundRecord is one row of the rounds table.
type roundRecord struct {
	Round   uint64
	Horizon int64
}

// roundRecorderHook inserts one record per completed round.
type roundRecorderHook struct {
	recorder datarecording.DataRecorder
}

func (h roundRecorderHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosRoundEnd {
		return
	}

	scheduler := ctx.Domain.(*sim.Scheduler)
	h.recorder.InsertData("rounds", roundRecord{
		Round:   scheduler.Round(),
		Horizon: int64(ctx.Now),
	})
}

func (s *Simulation) recordRounds() {
	s.dataRecorder.CreateTable("rounds", roundRecord{})
	s.scheduler.AcceptHook(roundRecorderHook{recorder: s.dataRecorder})
}

// leakRecord is one row of the leaks table.
type leakRecord struct {
	Type        string
	Alloc       int64
	Dealloc     int64
	Outstanding int64
}

// Terminate records the end-of-run statistics and closes the data recorder.
func (s *Simulation) Terminate() {
	if s.scheduler != nil {
		s.recordLeaks()
		s.recordSyscalls()

		if n := s.scheduler.ObjectCounter().ReportLeaks(); n > 0 {
			logrus.Warnf("%d object types leaked", n)
		}
	}

	s.dataRecorder.Close()
}

func (s *Simulation) recordLeaks() {
	s.dataRecorder.CreateTable("leaks", leakRecord{})

	for _, l := range s.scheduler.ObjectCounter().Leaks() {
		s.dataRecorder.InsertData("leaks", leakRecord{
			Type:        l.Type,
			Alloc:       l.Alloc,
			Dealloc:     l.Dealloc,
			Outstanding: l.Outstanding(),
		})
	}
}

// syscallRecord is one row of the syscalls table.
type syscallRecord struct {
	Name  string
	Count int64
}

func (s *Simulation) recordSyscalls() {
	s.dataRecorder.CreateTable("syscalls", syscallRecord{})

	counts := s.scheduler.SyscallCounts()
	for _, name := range counts.Keys() {
		s.dataRecorder.InsertData("syscalls", syscallRecord{
			Name:  name,
			Count: counts.Get(name),
		})
	}
}
